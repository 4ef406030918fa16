package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"fitnessfight-engine/models"
)

// Clustering thresholds for "same session" detection between users.
const (
	groupTimeWindow     = 5 * time.Minute
	groupDistanceMeters = 150.0
	groupMinElapsed     = 15 * time.Minute

	DefaultLookback = 24 * time.Hour
)

// GroupBadgeCode names the catalog entry the detector awards against.
const GroupBadgeCode = "better-together"

// GroupDetector is a stateless batch job: it scans a lookback window of
// activities, clusters those that happened together, and awards the group
// badge to every member of a qualifying cluster. Re-running it over an
// overlapping window is idempotent because the awarder is tier-monotonic.
type GroupDetector struct {
	Activities ActivityReader
	Catalog    BadgeCatalog
	Awarder    *TierAwarder
	Reports    ReportSink // optional
}

func NewGroupDetector(activities ActivityReader, catalog BadgeCatalog, awarder *TierAwarder, reports ReportSink) *GroupDetector {
	return &GroupDetector{
		Activities: activities,
		Catalog:    catalog,
		Awarder:    awarder,
		Reports:    reports,
	}
}

// DetectionReport summarizes one detector run, for logs and the admin panel.
type DetectionReport struct {
	RanAt      time.Time       `json:"ran_at"`
	Lookback   string          `json:"lookback"`
	Considered int             `json:"considered"`
	Skipped    int             `json:"skipped"` // activities without a usable coordinate
	Clusters   []ClusterReport `json:"clusters"`
}

type ClusterReport struct {
	Size        int         `json:"size"`
	Tier        models.Tier `json:"tier"`
	UserIDs     []string    `json:"user_ids"`
	ActivityIDs []string    `json:"activity_ids"`
}

type clusterMember struct {
	act models.Activity
	lat float64
	lng float64
}

// Run executes one detection pass over the lookback window.
func (d *GroupDetector) Run(ctx context.Context, lookback time.Duration) (*DetectionReport, error) {
	def, err := d.Catalog.ByCode(GroupBadgeCode)
	if err != nil {
		return nil, fmt.Errorf("loading group badge definition: %w", err)
	}
	if def == nil {
		return nil, fmt.Errorf("group badge %q not in catalog", GroupBadgeCode)
	}

	now := time.Now().UTC()
	acts, err := d.Activities.InWindow(now.Add(-lookback), now, groupMinElapsed)
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}

	members := make([]clusterMember, 0, len(acts))
	skipped := 0
	for i := range acts {
		lat, lng, err := StartCoordinate(acts[i].Polyline)
		if err != nil {
			// No usable coordinate just drops this one activity from the run.
			skipped++
			log.Printf("[GroupDetect] activity %s excluded: %v", acts[i].ID, err)
			continue
		}
		members = append(members, clusterMember{act: acts[i], lat: lat, lng: lng})
	}

	report := &DetectionReport{
		RanAt:      now,
		Lookback:   lookback.String(),
		Considered: len(members),
		Skipped:    skipped,
	}

	for _, cluster := range buildClusters(members) {
		size := len(cluster)
		tier := HighestTier(def.Thresholds, float64(size))

		cr := ClusterReport{Size: size, Tier: tier}
		for _, m := range cluster {
			cr.UserIDs = append(cr.UserIDs, m.act.UserID)
			cr.ActivityIDs = append(cr.ActivityIDs, m.act.ID)

			// One user's failed write must not block the rest of the cluster.
			if _, _, err := d.Awarder.Apply(def, m.act.UserID, float64(size)); err != nil {
				log.Printf("[GroupDetect] award failed for user %s: %v", m.act.UserID, err)
			}
		}
		report.Clusters = append(report.Clusters, cr)
	}

	if d.Reports != nil {
		if err := d.Reports.Put(ctx, report); err != nil {
			log.Printf("[GroupDetect] report upload failed: %v", err)
		}
	}
	return report, nil
}

// buildClusters groups members by single-linkage: a candidate joins a cluster
// when it is within the time and distance windows of any current member, not
// just the seed, and passes repeat until the cluster stops growing. Each
// cluster holds at most one activity per user; clusters of one are dropped.
func buildClusters(members []clusterMember) [][]clusterMember {
	assigned := make([]bool, len(members))
	var clusters [][]clusterMember

	for i := range members {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		cluster := []clusterMember{members[i]}
		users := map[string]bool{members[i].act.UserID: true}

		for grew := true; grew; {
			grew = false
			for j := range members {
				if assigned[j] || users[members[j].act.UserID] {
					continue
				}
				if nearAny(cluster, members[j]) {
					assigned[j] = true
					cluster = append(cluster, members[j])
					users[members[j].act.UserID] = true
					grew = true
				}
			}
		}

		if len(cluster) >= 2 {
			clusters = append(clusters, cluster)
		}
	}
	return clusters
}

func nearAny(cluster []clusterMember, cand clusterMember) bool {
	for _, m := range cluster {
		dt := m.act.StartDate.Sub(cand.act.StartDate)
		if dt < 0 {
			dt = -dt
		}
		if dt > groupTimeWindow {
			continue
		}
		if Haversine(m.lat, m.lng, cand.lat, cand.lng) <= groupDistanceMeters {
			return true
		}
	}
	return false
}
