// Package storage owns the filesystem side of archive jobs: a fresh working
// directory per job (NewWorkDir), relocation of the finished zip into the
// output directory without clobbering earlier archives (Manager.Relocate),
// and removal of abandoned working directories (Cleanup).
package storage
