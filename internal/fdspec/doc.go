// Package fdspec compiles relation declarations written in CUE into
// ir.Relation values.
//
// A relation declares its attribute universe and its functional
// dependencies:
//
//	relation: Employee: {
//		attributes: ["id", "name", "dept", "manager"]
//		fds: [
//			{lhs: ["id"], rhs: ["name", "dept"]},
//			"dept -> manager",
//		]
//	}
//
// Each FD is either a struct with lhs/rhs lists or a string in FD notation
// (see package parse). Attributes mentioned by an FD but not declared are
// reported as errors.
package fdspec
