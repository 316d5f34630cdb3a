package dialect

// Feature is an optional SQL construct whose availability depends on the
// family and version.
type Feature string

const (
	FeatureILike            Feature = "ILIKE"
	FeatureSimilarTo        Feature = "SIMILAR TO"
	FeatureBetweenSymmetric Feature = "BETWEEN SYMMETRIC"
	FeatureDistinctFrom     Feature = "IS DISTINCT FROM"
	FeatureIsUnknown        Feature = "IS UNKNOWN"
	FeatureArray            Feature = "ARRAY constructor"
	FeatureArraySubscript   Feature = "array subscript"
	FeatureJSONArrow        Feature = "JSON -> operator"
	FeatureJSONPath         Feature = "JSON #> path operator"
	FeatureNamedNotation    Feature = "named argument notation"
	FeatureWindow           Feature = "window functions"
	FeatureGroupsFrame      Feature = "GROUPS frame unit"
	FeatureFrameExclude     Feature = "frame EXCLUDE clause"
	FeatureBitXor           Feature = "bitwise XOR"
	FeatureBitLiteral       Feature = "bit string literal"
	FeatureArrayLiteral     Feature = "array literal"
	FeatureNullsOrdering    Feature = "NULLS FIRST/LAST"
)

// support maps a feature to the minimum version of each family that has
// it. A family missing from the inner map never supports the feature.
var support = map[Feature]map[Family]Version{
	FeatureILike:            {PostgreSQL: {}},
	FeatureSimilarTo:        {PostgreSQL: {}},
	FeatureBetweenSymmetric: {PostgreSQL: {}},
	// MySQL spells it with the null-safe equality operator.
	FeatureDistinctFrom:   {PostgreSQL: {}, MySQL: {}, SQLite: V(3, 39, 0)},
	FeatureIsUnknown:      {PostgreSQL: {}, MySQL: {}},
	FeatureArray:          {PostgreSQL: {}},
	FeatureArraySubscript: {PostgreSQL: {}},
	FeatureArrayLiteral:   {PostgreSQL: {}},
	FeatureJSONArrow:      {PostgreSQL: V(9, 3, 0), MySQL: V(5, 7, 13), SQLite: V(3, 38, 0)},
	FeatureJSONPath:       {PostgreSQL: V(9, 3, 0)},
	FeatureNamedNotation:  {PostgreSQL: V(9, 0, 0)},
	FeatureWindow:         {PostgreSQL: V(8, 4, 0), MySQL: V(8, 0, 0), SQLite: V(3, 25, 0)},
	FeatureGroupsFrame:    {PostgreSQL: V(11, 0, 0), SQLite: V(3, 28, 0)},
	FeatureFrameExclude:   {PostgreSQL: V(11, 0, 0), SQLite: V(3, 28, 0)},
	FeatureBitXor:         {PostgreSQL: {}, MySQL: {}},
	FeatureBitLiteral:     {PostgreSQL: {}, MySQL: {}},
	FeatureNullsOrdering:  {PostgreSQL: V(8, 3, 0), SQLite: V(3, 30, 0)},
}

// Supports reports whether d can render feature f.
func (d Dialect) Supports(f Feature) bool {
	byFamily, ok := support[f]
	if !ok {
		return true
	}
	floor, ok := byFamily[d.Family]
	if !ok {
		return false
	}
	return d.Version.AtLeast(floor)
}

// MinVersion returns the first version of family that supports f.
func MinVersion(f Feature, family Family) (Version, bool) {
	byFamily, ok := support[f]
	if !ok {
		return Version{}, true
	}
	v, ok := byFamily[family]
	return v, ok
}
