// Package all wires the built-in object store backends into the objectstore
// factory. Import it for side effects only.
//
// Registered kinds:
//
//   - "minio" (nyctaxi/internal/objectstore/minio)
//   - "s3"    (nyctaxi/internal/objectstore/s3)
//   - "file"  (nyctaxi/internal/objectstore/fsstore)
package all

import (
	_ "nyctaxi/internal/objectstore/fsstore"
	_ "nyctaxi/internal/objectstore/minio"
	_ "nyctaxi/internal/objectstore/s3"
)
