package bplus

// Searches over a packed item array: content holds len(content)/itemSize
// records, each carrying a key of len(target) bytes at offset. Leaves search
// with offset 0 (key first), inner nodes with offset RefSize (child first).

// SearchOne is a plain binary search. When found, idx is some matching item;
// otherwise idx is the first item whose key is greater than target, which is
// also where target would be inserted.
func SearchOne(content []byte, itemSize int, target []byte, offset int, cmp CompareFunc) (found bool, idx int) {
	if len(content) == 0 {
		return false, 0
	}
	checkLayout(len(content), itemSize, len(target), offset)
	cmp = orDefault(cmp)

	low, high := 0, len(content)/itemSize
	for low < high {
		mid := low + (high-low)/2
		c := cmp(target, keyAt(content, itemSize, mid, offset, len(target)))
		switch {
		case c == 0:
			return true, mid
		case c > 0:
			low = mid + 1
		default:
			high = mid
		}
	}
	return false, low
}

// SearchFirst returns the leftmost item equal to target.
func SearchFirst(content []byte, itemSize int, target []byte, offset int, cmp CompareFunc) (bool, int) {
	found, idx := SearchOne(content, itemSize, target, offset, cmp)
	if !found {
		return false, idx
	}
	cmp = orDefault(cmp)
	for idx > 0 && cmp(keyAt(content, itemSize, idx-1, offset, len(target)), target) == 0 {
		idx--
	}
	return true, idx
}

// SearchLast returns the rightmost item equal to target.
func SearchLast(content []byte, itemSize int, target []byte, offset int, cmp CompareFunc) (bool, int) {
	found, idx := SearchOne(content, itemSize, target, offset, cmp)
	if !found {
		return false, idx
	}
	cmp = orDefault(cmp)
	last := len(content)/itemSize - 1
	for idx < last && cmp(keyAt(content, itemSize, idx+1, offset, len(target)), target) == 0 {
		idx++
	}
	return true, idx
}

func keyAt(content []byte, itemSize, i, offset, size int) []byte {
	start := i*itemSize + offset
	return content[start : start+size]
}

func checkLayout(contentLen, itemSize, keySize, offset int) {
	if itemSize <= 0 || contentLen%itemSize != 0 {
		panic(invariantf("content length %d is not a multiple of item size %d", contentLen, itemSize))
	}
	if offset < 0 || keySize == 0 || offset+keySize > itemSize {
		panic(invariantf("key field [%d,%d) outside item of %d bytes", offset, offset+keySize, itemSize))
	}
}
