package search

import (
	"center-lookup/internal/dataset"
	"center-lookup/internal/refindex"
)

func center(id, district, upazila, serial int, name, codes string) *refindex.IndexedCenter {
	return refindex.IndexCenter(dataset.Center{
		ID:             id,
		Name:           name,
		Slug:           "c-" + name,
		DivisionID:     1,
		DistrictID:     district,
		UpazilaID:      upazila,
		UnionID:        upazila*10 + 1,
		ConstituencyID: district * 100,
		VoterType:      dataset.VoterBoth,
		Serial:         serial,
		VoterAreaCodes: dataset.EncodedCodes(codes),
	})
}

func ids(list []*refindex.IndexedCenter) []int {
	out := make([]int, 0, len(list))
	for _, c := range list {
		out = append(out, c.ID)
	}
	return out
}
