// Package all wires the built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs each backend's init, which registers its Repository factory and
// DDL dialect with the storage package.
//
// Currently registered kinds:
//
//   - "postgres" (nyctaxi/internal/storage/postgres)
package all

import (
	_ "nyctaxi/internal/storage/postgres"
)
