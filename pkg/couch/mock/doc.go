// Package mock implements an in-memory document database speaking the HTTP
// surface used by package couch. It backs the "mock" runtime mode, the
// sandbox command and the package tests.
package mock
