package mir

// IsEpilogueInsertionBlock reports whether epilogue/frame destruction code
// would be inserted into b. When the frame carries an explicit restore point
// (a block chosen by shrink-wrapping) only that block qualifies, no matter
// how many blocks end in a return. Without one, every return block
// qualifies.
func IsEpilogueInsertionBlock(fi FrameInfo, b *Block) bool {
	if fi.RestorePoint.Valid {
		return b.Number == fi.RestorePoint.Number
	}
	return b.EndsInReturn
}

// IsPrologueInsertionBlock is the prologue counterpart: the save point when
// one exists, otherwise the function's entry block. entry is the number of
// the first block in layout order. Only a single prologue block is expected
// under the fallback rule; callers treat extra occurrences as an anomaly to
// log, not an error.
func IsPrologueInsertionBlock(fi FrameInfo, b *Block, entry int) bool {
	if fi.SavePoint.Valid {
		return b.Number == fi.SavePoint.Number
	}
	return b.Number == entry
}
