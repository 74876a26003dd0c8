// Package shared holds code used across packages that belongs to no single
// domain. Its testutil subpackage provides log capture and market data
// fixtures for tests.
package shared
