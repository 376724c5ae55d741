package index

import (
	"bytes"
	"encoding/gob"
	"sort"
	"sync"
)

// JoinIndex records which child documents point at which parent.
// Parents are keyed by their external key ("type/id"); children by internal ID,
// kept in ascending order so resolution is deterministic.
type JoinIndex struct {
	Mu       sync.RWMutex
	Children map[string]map[string][]uint32 // parent key -> child type -> child internal IDs
	Parents  map[uint32]string              // child internal ID -> parent key
}

// NewJoinIndex creates an empty join index.
func NewJoinIndex() *JoinIndex {
	return &JoinIndex{
		Children: make(map[string]map[string][]uint32),
		Parents:  make(map[uint32]string),
	}
}

// AddUnsafe joins a child to its parent. The caller must hold Mu.
func (ji *JoinIndex) AddUnsafe(parentKey, childType string, childID uint32) {
	if prev, ok := ji.Parents[childID]; ok {
		if prev == parentKey {
			return
		}
		ji.RemoveUnsafe(childType, childID)
	}
	byType, ok := ji.Children[parentKey]
	if !ok {
		byType = make(map[string][]uint32)
		ji.Children[parentKey] = byType
	}
	ids := byType[childType]
	pos := sort.Search(len(ids), func(i int) bool { return ids[i] >= childID })
	ids = append(ids, 0)
	copy(ids[pos+1:], ids[pos:])
	ids[pos] = childID
	byType[childType] = ids
	ji.Parents[childID] = parentKey
}

// RemoveUnsafe detaches a child from its parent. The caller must hold Mu.
func (ji *JoinIndex) RemoveUnsafe(childType string, childID uint32) {
	parentKey, ok := ji.Parents[childID]
	if !ok {
		return
	}
	delete(ji.Parents, childID)
	byType := ji.Children[parentKey]
	ids := byType[childType]
	for i, id := range ids {
		if id == childID {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(byType, childType)
	} else {
		byType[childType] = ids
	}
	if len(byType) == 0 {
		delete(ji.Children, parentKey)
	}
}

// ChildrenOf returns a copy of the child IDs of one type joined to parentKey.
// The caller must hold at least a read lock.
func (ji *JoinIndex) ChildrenOf(parentKey, childType string) []uint32 {
	ids := ji.Children[parentKey][childType]
	out := make([]uint32, len(ids))
	copy(out, ids)
	return out
}

// ResetUnsafe empties the join index. The caller must hold Mu.
func (ji *JoinIndex) ResetUnsafe() {
	ji.Children = make(map[string]map[string][]uint32)
	ji.Parents = make(map[uint32]string)
}

type gobJoinIndexData struct {
	Children map[string]map[string][]uint32
	Parents  map[uint32]string
}

// GobEncode implements the gob.GobEncoder interface for JoinIndex.
func (ji *JoinIndex) GobEncode() ([]byte, error) {
	ji.Mu.RLock()
	defer ji.Mu.RUnlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobJoinIndexData{Children: ji.Children, Parents: ji.Parents}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for JoinIndex.
func (ji *JoinIndex) GobDecode(data []byte) error {
	var decoded gobJoinIndexData
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&decoded); err != nil {
		return err
	}

	ji.Mu.Lock()
	defer ji.Mu.Unlock()

	ji.Children = decoded.Children
	ji.Parents = decoded.Parents
	if ji.Children == nil {
		ji.Children = make(map[string]map[string][]uint32)
	}
	if ji.Parents == nil {
		ji.Parents = make(map[uint32]string)
	}
	return nil
}
