package index

import (
	"bytes"
	"encoding/gob"
	"sort"
	"sync"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/model"
)

// InvertedIndex maps a term (token) to the units containing it and keeps per-field
// statistics over every indexed unit.
type InvertedIndex struct {
	Mu       sync.RWMutex
	Index    map[string]PostingList
	Fields   map[string]*FieldStat
	Settings *config.IndexSettings // Reference to settings for this index
}

// NewInvertedIndex creates an empty index bound to settings.
func NewInvertedIndex(settings *config.IndexSettings) *InvertedIndex {
	return &InvertedIndex{
		Index:    make(map[string]PostingList),
		Fields:   make(map[string]*FieldStat),
		Settings: settings,
	}
}

// AddUnsafe records tf occurrences of term in field for one unit.
// Entries stay sorted by DocID then by nested address. The caller must hold Mu.
func (ii *InvertedIndex) AddUnsafe(term string, entry PostingEntry) {
	list := ii.Index[term]
	key := entry.Nested.String()
	pos := sort.Search(len(list), func(i int) bool {
		if list[i].DocID != entry.DocID {
			return list[i].DocID > entry.DocID
		}
		if list[i].FieldName != entry.FieldName {
			return list[i].FieldName > entry.FieldName
		}
		return list[i].Nested.String() >= key
	})
	if pos < len(list) && list[pos].DocID == entry.DocID && list[pos].FieldName == entry.FieldName && list[pos].Nested.Equal(entry.Nested) {
		list[pos] = entry
		return
	}
	list = append(list, PostingEntry{})
	copy(list[pos+1:], list[pos:])
	list[pos] = entry
	ii.Index[term] = list
}

// RemoveDocUnsafe drops every posting of a stored document, nested units included.
// The caller must hold Mu.
func (ii *InvertedIndex) RemoveDocUnsafe(docID uint32) {
	for term, list := range ii.Index {
		kept := list[:0]
		for _, entry := range list {
			if entry.DocID != docID {
				kept = append(kept, entry)
			}
		}
		if len(kept) == 0 {
			delete(ii.Index, term)
		} else {
			ii.Index[term] = kept
		}
	}
}

// AddFieldLengthUnsafe adds (delta > 0) or removes (delta < 0) one unit of the given length.
func (ii *InvertedIndex) AddFieldLengthUnsafe(field string, length int, delta int) {
	if length == 0 {
		return
	}
	stat, ok := ii.Fields[field]
	if !ok {
		if delta < 0 {
			return
		}
		stat = &FieldStat{}
		ii.Fields[field] = stat
	}
	stat.DocCount += delta
	stat.TotalLength += delta * length
	if stat.DocCount <= 0 {
		delete(ii.Fields, field)
	}
}

// Read accessors below do not lock; callers hold at least a read lock on Mu
// for the duration of a search so that every statistic comes from one epoch.

// DocFreq returns the number of units whose field contains term.
func (ii *InvertedIndex) DocFreq(field, term string) int {
	count := 0
	for _, entry := range ii.Index[term] {
		if entry.FieldName == field {
			count++
		}
	}
	return count
}

// FieldStats returns the statistics of a field.
func (ii *InvertedIndex) FieldStats(field string) FieldStat {
	if stat, ok := ii.Fields[field]; ok {
		return *stat
	}
	return FieldStat{}
}

// Postings returns a copy of the postings of term restricted to field ("" for all fields).
func (ii *InvertedIndex) Postings(term, field string) PostingList {
	var out PostingList
	for _, entry := range ii.Index[term] {
		if field == "" || entry.FieldName == field {
			out = append(out, entry)
		}
	}
	return out
}

// HasUnit reports whether some posting of term addresses the given unit in field.
func (ii *InvertedIndex) HasUnit(term, field string, docID uint32, nested *model.NestedIdentity) bool {
	list := ii.Index[term]
	pos := sort.Search(len(list), func(i int) bool {
		if list[i].DocID != docID {
			return list[i].DocID > docID
		}
		return list[i].FieldName >= field
	})
	for ; pos < len(list) && list[pos].DocID == docID && list[pos].FieldName == field; pos++ {
		if list[pos].SameUnit(docID, nested) {
			return true
		}
	}
	return false
}

// DocsWithAny returns the sorted IDs of stored documents that have a posting for at
// least one of refs, in any of their units.
func (ii *InvertedIndex) DocsWithAny(refs []FieldTerm) []uint32 {
	seen := make(map[uint32]struct{})
	for _, ref := range refs {
		for _, entry := range ii.Postings(ref.Term, ref.Field) {
			seen[entry.DocID] = struct{}{}
		}
	}
	ids := make([]uint32, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ResetUnsafe empties the index and its statistics. The caller must hold Mu.
func (ii *InvertedIndex) ResetUnsafe() {
	ii.Index = make(map[string]PostingList)
	ii.Fields = make(map[string]*FieldStat)
}

// gobInvertedIndexData is a helper struct for Gob encoding/decoding InvertedIndex data.
// It excludes the mutex.
type gobInvertedIndexData struct {
	Index    map[string]PostingList
	Fields   map[string]*FieldStat
	Settings *config.IndexSettings
}

// GobEncode implements the gob.GobEncoder interface for InvertedIndex.
func (ii *InvertedIndex) GobEncode() ([]byte, error) {
	ii.Mu.RLock() // Ensure consistent data during encoding
	defer ii.Mu.RUnlock()

	dataToEncode := gobInvertedIndexData{
		Index:    ii.Index,
		Fields:   ii.Fields,
		Settings: ii.Settings,
	}

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(dataToEncode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for InvertedIndex.
func (ii *InvertedIndex) GobDecode(data []byte) error {
	decodedData := gobInvertedIndexData{}

	buf := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buf)
	if err := decoder.Decode(&decodedData); err != nil {
		return err
	}

	ii.Mu.Lock() // Ensure exclusive access during decoding
	defer ii.Mu.Unlock()

	ii.Index = decodedData.Index
	ii.Fields = decodedData.Fields
	ii.Settings = decodedData.Settings

	if ii.Index == nil {
		ii.Index = make(map[string]PostingList)
	}
	if ii.Fields == nil {
		ii.Fields = make(map[string]*FieldStat)
	}
	return nil
}
