package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order.  Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(120) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          ENUM('ADMIN','COORDINATOR','STUDENT') NOT NULL DEFAULT 'STUDENT',
		department    VARCHAR(120) NULL,
		year          VARCHAR(16)  NULL,
		phone         VARCHAR(32)  NULL,
		is_active     TINYINT(1) NOT NULL DEFAULT 1,
		created_at    DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at    DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS events (
		id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name            VARCHAR(200) NOT NULL,
		category        VARCHAR(80)  NULL,
		description     TEXT NULL,
		event_date      DATE NOT NULL,
		start_time      VARCHAR(5) NULL,
		end_time        VARCHAR(5) NULL,
		venue           VARCHAR(200) NULL,
		capacity        INT NULL,
		cover_image_url VARCHAR(500) NULL,
		tags            JSON NULL,
		created_by      BIGINT UNSIGNED NOT NULL,
		is_published    TINYINT(1) NOT NULL DEFAULT 0,
		created_at      DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at      DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		KEY idx_events_published_date (is_published, event_date),
		CONSTRAINT fk_events_created_by FOREIGN KEY (created_by) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	// code uses a binary collation: check-in codes match case-sensitively.
	`CREATE TABLE IF NOT EXISTS registrations (
		id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		event_id       BIGINT UNSIGNED NOT NULL,
		participant_id BIGINT UNSIGNED NOT NULL,
		status         ENUM('registered','waitlisted','cancelled','checked_in') NOT NULL,
		code           CHAR(8) CHARACTER SET ascii COLLATE ascii_bin NOT NULL,
		created_at     DATETIME(3) NOT NULL,
		updated_at     DATETIME(3) NOT NULL,
		UNIQUE KEY uq_registrations_event_participant (event_id, participant_id),
		UNIQUE KEY uq_registrations_code (event_id, code),
		KEY idx_registrations_event_status (event_id, status),
		KEY idx_registrations_participant (participant_id),
		CONSTRAINT fk_registrations_event FOREIGN KEY (event_id) REFERENCES events (id) ON DELETE CASCADE,
		CONSTRAINT fk_registrations_user FOREIGN KEY (participant_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS feedback (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		event_id   BIGINT UNSIGNED NOT NULL,
		user_id    BIGINT UNSIGNED NOT NULL,
		rating     TINYINT UNSIGNED NOT NULL,
		comments   TEXT NULL,
		created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		UNIQUE KEY uq_feedback_event_user (event_id, user_id),
		CONSTRAINT chk_feedback_rating CHECK (rating BETWEEN 1 AND 5),
		CONSTRAINT fk_feedback_event FOREIGN KEY (event_id) REFERENCES events (id) ON DELETE CASCADE,
		CONSTRAINT fk_feedback_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
