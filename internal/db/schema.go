package db

import (
	"context"
	"fmt"
)

// MaintenanceKey is the app_settings row backing the maintenance gate.
const MaintenanceKey = "maintenance_mode"

var schema = []struct {
	table string
	ddl   string
}{
	{"users", `
CREATE TABLE IF NOT EXISTS users (
	id CHAR(36) NOT NULL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	role ENUM('user','admin') NOT NULL DEFAULT 'user',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"bus_stops", `
CREATE TABLE IF NOT EXISTS bus_stops (
	id CHAR(36) NOT NULL PRIMARY KEY,
	name VARCHAR(255) NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"routes", `
CREATE TABLE IF NOT EXISTS routes (
	id CHAR(36) NOT NULL PRIMARY KEY,
	source_stop_id CHAR(36) NOT NULL,
	destination_stop_id CHAR(36) NOT NULL,
	CONSTRAINT fk_routes_source FOREIGN KEY (source_stop_id) REFERENCES bus_stops(id),
	CONSTRAINT fk_routes_destination FOREIGN KEY (destination_stop_id) REFERENCES bus_stops(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"vehicle_types", `
CREATE TABLE IF NOT EXISTS vehicle_types (
	id CHAR(36) NOT NULL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	total_seats INT NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"vehicles", `
CREATE TABLE IF NOT EXISTS vehicles (
	id CHAR(36) NOT NULL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	vehicle_type_id CHAR(36) NOT NULL,
	CONSTRAINT fk_vehicles_type FOREIGN KEY (vehicle_type_id) REFERENCES vehicle_types(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"drivers", `
CREATE TABLE IF NOT EXISTS drivers (
	id CHAR(36) NOT NULL PRIMARY KEY,
	name VARCHAR(255) NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"trips", `
CREATE TABLE IF NOT EXISTS trips (
	id CHAR(36) NOT NULL PRIMARY KEY,
	route_id CHAR(36) NOT NULL,
	vehicle_id CHAR(36) NOT NULL,
	driver_id CHAR(36) NOT NULL,
	trip_date DATE NOT NULL,
	departure_at DATETIME NOT NULL,
	arrival_at DATETIME NOT NULL,
	notification_sent BOOLEAN NOT NULL DEFAULT FALSE,
	KEY idx_trips_departure (departure_at, notification_sent),
	CONSTRAINT fk_trips_route FOREIGN KEY (route_id) REFERENCES routes(id),
	CONSTRAINT fk_trips_vehicle FOREIGN KEY (vehicle_id) REFERENCES vehicles(id),
	CONSTRAINT fk_trips_driver FOREIGN KEY (driver_id) REFERENCES drivers(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"operational_statuses", `
CREATE TABLE IF NOT EXISTS operational_statuses (
	trip_id CHAR(36) NOT NULL PRIMARY KEY,
	status ENUM('delayed','cancelled') NOT NULL,
	description TEXT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	CONSTRAINT fk_status_trip FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"reservations", `
CREATE TABLE IF NOT EXISTS reservations (
	id CHAR(36) NOT NULL PRIMARY KEY,
	trip_id CHAR(36) NOT NULL,
	user_id CHAR(36) NOT NULL,
	seat_number INT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_reservation_trip_user (trip_id, user_id),
	UNIQUE KEY uniq_reservation_trip_seat (trip_id, seat_number),
	KEY idx_reservation_user (user_id),
	CONSTRAINT fk_reservation_trip FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE CASCADE,
	CONSTRAINT fk_reservation_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"app_settings", `
CREATE TABLE IF NOT EXISTS app_settings (
	setting_key VARCHAR(100) NOT NULL PRIMARY KEY,
	value VARCHAR(255) NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
}

// EnsureSchema creates missing tables and seeds the maintenance setting.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, t := range schema {
		if HasTable(ctx, q, t.table) {
			continue
		}
		if _, err := q.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create %s: %w", t.table, err)
		}
	}
	if _, err := q.ExecContext(ctx,
		`INSERT IGNORE INTO app_settings (setting_key, value) VALUES (?, 'false')`, MaintenanceKey); err != nil {
		return fmt.Errorf("seed %s: %w", MaintenanceKey, err)
	}
	return nil
}
