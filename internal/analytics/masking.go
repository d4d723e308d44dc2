package analytics

import (
	"fmt"
	"sort"

	"quizhub-service/internal/domain"
)

// Masker anonymizes learner identities inside a report. Only identity-bearing
// strings are touched; scores, times and counts pass through untouched.
//
// Two strategies exist. StableMasker assigns "Student N" by position in the
// sorted user-id list, so the same learner keeps the same label across
// paginated views and repeated report builds; it is the default. Sequential
// masking labels users in first-seen order within a single call and is kept
// for callers that depended on the legacy numbering.
type Masker interface {
	Mask(r Report) Report
	MaskRealtime(s RealtimeStats) RealtimeStats
}

// MaskForViewer applies the strategy unless the viewer is an admin. Unknown
// roles are masked: anonymization fails closed.
func MaskForViewer(r Report, role domain.Role, m Masker) Report {
	if role == domain.RoleAdmin {
		return r
	}
	return m.Mask(r)
}

// MaskRealtimeForViewer is MaskForViewer for the realtime view.
func MaskRealtimeForViewer(s RealtimeStats, role domain.Role, m Masker) RealtimeStats {
	if role == domain.RoleAdmin {
		return s
	}
	return m.MaskRealtime(s)
}

// StableMasker labels users by rank in the sorted user-id list.
type StableMasker struct{}

func (StableMasker) Mask(r Report) Report {
	labels := stableLabels(collectUserIDs(r))
	return relabel(r, func(userID, _ string) string { return labels[userID] })
}

func (StableMasker) MaskRealtime(s RealtimeStats) RealtimeStats {
	ids := make([]string, 0, len(s.RecentAttempts))
	for _, a := range s.RecentAttempts {
		ids = append(ids, a.UserID)
	}
	labels := stableLabels(ids)
	return relabelRealtime(s, func(userID string) string { return labels[userID] })
}

// SequentialMasker labels users in first-seen order within one call. Labels
// are not stable across calls or pages; prefer StableMasker.
type SequentialMasker struct{}

func (SequentialMasker) Mask(r Report) Report {
	seen := make(map[string]string)
	return relabel(r, func(userID, _ string) string { return nextLabel(seen, userID) })
}

func (SequentialMasker) MaskRealtime(s RealtimeStats) RealtimeStats {
	seen := make(map[string]string)
	return relabelRealtime(s, func(userID string) string { return nextLabel(seen, userID) })
}

func nextLabel(seen map[string]string, userID string) string {
	if label, ok := seen[userID]; ok {
		return label
	}
	label := fmt.Sprintf("Student %d", len(seen)+1)
	seen[userID] = label
	return label
}

func stableLabels(userIDs []string) map[string]string {
	unique := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		unique[id] = struct{}{}
	}
	sorted := make([]string, 0, len(unique))
	for id := range unique {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	labels := make(map[string]string, len(sorted))
	for i, id := range sorted {
		labels[id] = fmt.Sprintf("Student %d", i+1)
	}
	return labels
}

func collectUserIDs(r Report) []string {
	ids := make([]string, 0, len(r.PerformanceMatrix.Rows))
	for _, row := range r.PerformanceMatrix.Rows {
		ids = append(ids, row.UserID)
	}
	return ids
}

// relabel deep-copies the matrix rows, replacing user ids and names with the
// synthetic label. The user id itself is identity-bearing and is replaced by
// the label as well.
func relabel(r Report, label func(userID, name string) string) Report {
	rows := make([]MatrixRow, len(r.PerformanceMatrix.Rows))
	copy(rows, r.PerformanceMatrix.Rows)
	for i := range rows {
		l := label(rows[i].UserID, rows[i].UserName)
		rows[i].UserID = l
		rows[i].UserName = l
	}
	r.PerformanceMatrix.Rows = rows
	return r
}

func relabelRealtime(s RealtimeStats, label func(userID string) string) RealtimeStats {
	attempts := make([]RecentAttempt, len(s.RecentAttempts))
	copy(attempts, s.RecentAttempts)
	for i := range attempts {
		l := label(attempts[i].UserID)
		attempts[i].UserID = l
		attempts[i].UserName = l
	}
	s.RecentAttempts = attempts
	return s
}
