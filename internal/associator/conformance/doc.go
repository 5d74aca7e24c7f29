// Package conformance provides policy-agnostic tests that verify inheritance
// policies correctly implement the associator.Associator contract.
//
// # Running Conformance Tests
//
// The suite runs against every policy in the associator registry as part of
// the regular test run:
//
//	go test ./internal/associator/conformance
//
// # Adding a New Policy
//
// Policies registered with associator.Register are picked up automatically.
// A policy that is not registered can be checked directly:
//
//	func TestMyPolicyConformance(t *testing.T) {
//		suite := &Suite{Associator: MyPolicy{}}
//		suite.Run(t)
//	}
//
// # Test Categories
//
// The conformance suite tests:
//   - Inheritance: behavior without a declaration and input immutability
//   - Declarations: recursive and pattern features
//   - Aggregation: idempotence and ordering
package conformance
