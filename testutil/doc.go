// Package testutil provides table fixtures for tabletool tests.
//
//	func TestJoin(t *testing.T) {
//	    h := testutil.T(t)
//	    left := h.Table("left.tsv", "a\t1", "b\t2")
//	    // left is removed when the test ends
//	}
package testutil
