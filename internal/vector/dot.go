package vector

// batch is the number of products accumulated per unrolled step in Dot.
const batch = 16

// Dot returns the inner product of a and b over len(a) elements. b must be at
// least as long as a. The loop is unrolled into batches of 16 independent
// products with a scalar tail; results match InnerProduct within float
// summation-order tolerance.
func Dot(a, b []float32) float64 {
	n := len(a)
	b = b[:n]
	var sum float64
	i := 0
	for ; i+batch <= n; i += batch {
		x := a[i : i+batch : i+batch]
		y := b[i : i+batch : i+batch]
		s0 := x[0]*y[0] + x[1]*y[1] + x[2]*y[2] + x[3]*y[3]
		s1 := x[4]*y[4] + x[5]*y[5] + x[6]*y[6] + x[7]*y[7]
		s2 := x[8]*y[8] + x[9]*y[9] + x[10]*y[10] + x[11]*y[11]
		s3 := x[12]*y[12] + x[13]*y[13] + x[14]*y[14] + x[15]*y[15]
		sum += float64(s0 + s1 + s2 + s3)
	}
	var tail float32
	for ; i < n; i++ {
		tail += a[i] * b[i]
	}
	return sum + float64(tail)
}
