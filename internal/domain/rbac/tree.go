package rbac

// Descendants returns the ids of every page below rootID in pages.
// The walk is breadth-first and tolerates cycles in the parent chain.
func Descendants(pages []Page, rootID int64) map[int64]struct{} {
	children := make(map[int64][]int64, len(pages))
	for _, p := range pages {
		if p.ParentID != nil {
			children[*p.ParentID] = append(children[*p.ParentID], p.ID)
		}
	}

	out := make(map[int64]struct{})
	queue := []int64{rootID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range children[cur] {
			if c == rootID {
				continue
			}
			if _, seen := out[c]; seen {
				continue
			}
			out[c] = struct{}{}
			queue = append(queue, c)
		}
	}
	return out
}

// ValidParent reports whether parentID may become the parent of pageID:
// it must not be the page itself or one of its descendants.
func ValidParent(pages []Page, pageID, parentID int64) bool {
	if pageID == parentID {
		return false
	}
	_, below := Descendants(pages, pageID)[parentID]
	return !below
}
