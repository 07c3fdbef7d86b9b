// Package sqlite selects the SQLite driver used for exports.
//
// The default build uses the pure Go modernc.org/sqlite driver ("sqlite").
// Building with -tags cgo_sqlite switches to mattn/go-sqlite3 ("sqlite3").
package sqlite

import "database/sql"

// DriverName returns the database/sql driver name.
func DriverName() string {
	return driverName
}

// DriverType is "cgo" for mattn/go-sqlite3 and "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO reports whether the cgo driver was compiled in.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a SQLite database with the compiled-in driver.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// Info describes the compiled-in driver. Export runs record it and
// the version command prints it.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns the driver description.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}

// String formats the driver as "package (type)".
func (i Info) String() string {
	return i.Package + " (" + i.DriverType + ")"
}
