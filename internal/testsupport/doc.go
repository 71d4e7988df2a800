// Package testsupport builds throwaway configs and import trees for tests.
package testsupport
