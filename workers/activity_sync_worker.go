package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"fitnessfight-engine/models"
	"fitnessfight-engine/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActivitySyncClient pulls normalized activities from the ingestion service
// and feeds them through the badge engine. The transport (webhooks, provider
// polling, backfills) lives in the ingestion service; this worker is only the
// glue that hands finished records to the engine.
type ActivitySyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
	Engine     *services.BadgeEngine
}

func NewActivitySyncClient(db *gorm.DB, engine *services.BadgeEngine) *ActivitySyncClient {
	baseURL := os.Getenv("INGEST_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("INGEST_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("BADGE_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("BADGE_SERVICE_TOKEN environment variable is required for activity sync")
	}

	return &ActivitySyncClient{
		BaseURL: baseURL,
		Token:   token,
		DB:      db,
		Engine:  engine,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetNewActivities fetches activities ingested since the given time.
func (c *ActivitySyncClient) GetNewActivities(ctx context.Context, since time.Time) ([]models.Activity, error) {
	since = since.UTC()

	u, err := url.Parse(fmt.Sprintf("%s/api/v1/internal/activities", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("since", since.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call ingestion service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("ingestion service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Activities []models.Activity `json:"activities"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode ingestion service response: %w", err)
	}

	return response.Activities, nil
}

// PollActivities runs the sync loop: fetch new activities, upsert them into
// the local read model, then evaluate each through the engine. A failed fetch
// or upsert keeps the same window for the next tick; a failed evaluation of
// one activity does not stop the rest of the batch.
func PollActivities(ctx context.Context, client *ActivitySyncClient, pollInterval time.Duration) {
	log.Println("Starting activity polling...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Activity polling stopped.")
			return
		case <-ticker.C:
			tickTime := time.Now().UTC()

			activities, err := client.GetNewActivities(ctx, lastSyncTime)
			if err != nil {
				log.Printf("❌ Error polling activities: %v", err)
				continue
			}

			count := len(activities)
			if count == 0 {
				continue
			}
			log.Printf("📥 Received %d new activity(ies) from ingestion service.", count)

			for i := range activities {
				if activities[i].ID == "" {
					activities[i].ID = uuid.NewString()
				}
			}

			if err := client.DB.Clauses(
				clause.OnConflict{
					Columns: []clause.Column{{Name: "external_id"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"name", "activity_type", "sport_type", "start_date",
						"start_date_local", "distance_meters", "moving_time_seconds",
						"elapsed_time_seconds", "elevation_gain_meters",
						"average_speed_mps", "calories", "suffer_score",
						"photo_count", "polyline", "updated_at",
					}),
				},
			).Create(&activities).Error; err != nil {
				log.Printf("❌ Failed to upsert %d activity(ies): %v", count, err)
				// Do NOT advance lastSyncTime on failure; retry same window next tick
				continue
			}

			// Re-read so a redelivered record keeps the row ID it was first
			// stored under; the upsert no-ops on conflict but the slice still
			// carries the freshly minted one.
			externalIDs := make([]string, 0, count)
			for i := range activities {
				externalIDs = append(externalIDs, activities[i].ExternalID)
			}
			var stored []models.Activity
			if err := client.DB.Where("external_id IN ?", externalIDs).Find(&stored).Error; err != nil {
				log.Printf("❌ Failed to reload %d activity(ies): %v", count, err)
				continue
			}

			for i := range stored {
				if err := client.Engine.ProcessActivity(ctx, &stored[i]); err != nil {
					log.Printf("❌ Badge evaluation failed for activity %s: %v", stored[i].ExternalID, err)
				}
			}

			// Advance from the tick start so polling latency cannot open a gap.
			lastSyncTime = tickTime
			log.Printf("✅ Processed %d activity(ies).", count)
		}
	}
}
