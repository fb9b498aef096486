package push

import (
	"fmt"
	"strings"

	"github.com/zeu5/soccer-push/benchmarks/common"
	"github.com/zeu5/soccer-push/policies"
)

// returns a set of hierarchies for the given name.
// If the set name is a single hierarchy then it returns every suffix of it,
// from the final predicate alone up to the full list
func getHierarchySet(hSet string) []common.HierarchySet {
	if !strings.Contains(strings.ToLower(hSet), "set") {
		hierarchy := GetHierarchy(hSet)
		out := make([]common.HierarchySet, 0)
		for i := len(hierarchy) - 1; i >= 0; i-- {
			out = append(out, common.HierarchySet{
				Name:       fmt.Sprintf("%s[%d]", hSet, len(hierarchy)-i),
				Predicates: hierarchy[i:],
			})
		}
		return out
	}
	var hierarchies []string
	switch hSet {
	case "set1":
		hierarchies = []string{"Touch", "Push", "Approach"}
	default:
		return []common.HierarchySet{}
	}
	out := make([]common.HierarchySet, len(hierarchies))
	for i, h := range hierarchies {
		out[i] = common.HierarchySet{
			Name:       h,
			Predicates: GetHierarchy(h),
		}
	}
	return out
}

// GetHierarchy returns the named list of subgoals, nil if unknown
func GetHierarchy(name string) []policies.Predicate {
	var out []policies.Predicate
	switch name {
	case "Touch":
		out = []policies.Predicate{
			{Name: "NearBall", Check: NearBall()},
			{Name: "Goal", Check: Goal()},
		}
	case "Push":
		out = []policies.Predicate{
			{Name: "NearBall", Check: NearBall()},
			{Name: "BallHalfway", Check: BallAdvanced(0.5)},
			{Name: "Goal", Check: Goal()},
		}
	case "Approach":
		out = []policies.Predicate{
			{Name: "BallWithin6", Check: BallWithin(6)},
			{Name: "BallWithin3", Check: BallWithin(3)},
			{Name: "Goal", Check: Goal()},
		}
	}
	return out
}
