package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/claude/healthtrends/internal/metrics"
	"github.com/claude/healthtrends/internal/models"
	"github.com/claude/healthtrends/internal/storage"
	"github.com/go-chi/chi/v5"
)

// maxRecordsPerRequest caps one ingest batch.
const maxRecordsPerRequest = 5000

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetDataStats(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// recordsRequest is the JSON body for POST /api/v1/records.
type recordsRequest struct {
	Records []models.HealthRecordRow `json:"records"`
}

func (s *Server) handleInsertRecords(w http.ResponseWriter, r *http.Request) {
	var req recordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if len(req.Records) > maxRecordsPerRequest {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
			"error": fmt.Sprintf("at most %d records per request", maxRecordsPerRequest),
		})
		return
	}

	families := knownFamilies()
	uid := userIDFromContext(r)
	for i := range req.Records {
		rec := &req.Records[i]
		if !families[metrics.Family(rec.Family)] {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("record %d: unknown family %q", i, rec.Family),
			})
			return
		}
		if rec.RecordedAt.IsZero() {
			t, ok := rec.Fields.Time()
			if !ok {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": fmt.Sprintf("record %d: recorded_at or fields.date required", i),
				})
				return
			}
			rec.RecordedAt = t
		}
		rec.UserID = uid
	}

	start := time.Now()
	inserted, err := s.db.InsertRecords(r.Context(), req.Records)
	s.logIngest(r, uid, req.Records, inserted, time.Since(start), err)
	if err != nil {
		s.log.Error("record insert failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.log.Info("records ingested", "user_id", uid, "received", len(req.Records), "inserted", inserted)
	writeJSON(w, http.StatusOK, map[string]int64{
		"received": int64(len(req.Records)),
		"inserted": inserted,
	})
}

// logIngest records the outcome of an ingest request. Failures to write the
// log are logged and otherwise ignored.
func (s *Server) logIngest(r *http.Request, uid int, rows []models.HealthRecordRow, inserted int64, took time.Duration, ingestErr error) {
	seen := make(map[string]bool)
	var families []string
	for _, row := range rows {
		if !seen[row.Family] {
			seen[row.Family] = true
			families = append(families, row.Family)
		}
	}
	sort.Strings(families)

	ms := int(took.Milliseconds())
	entry := storage.IngestLog{
		UserID:          uid,
		Status:          "success",
		RecordsReceived: len(rows),
		RecordsInserted: inserted,
		Families:        families,
		DurationMs:      &ms,
	}
	if ingestErr != nil {
		msg := ingestErr.Error()
		entry.Status = "error"
		entry.ErrorMessage = &msg
	}
	if _, err := s.db.InsertIngestLog(r.Context(), entry); err != nil {
		s.log.Warn("writing ingest log", "error", err)
	}
}

func (s *Server) handleIngestLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}
	logs, err := s.db.QueryIngestLogs(r.Context(), userIDFromContext(r), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if logs == nil {
		logs = []storage.IngestLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// profileRequest is the JSON body for PUT /api/v1/profile. date_of_birth
// is YYYY-MM-DD.
type profileRequest struct {
	HeightCM    *float64 `json:"height_cm"`
	DateOfBirth string   `json:"date_of_birth"`
	Sex         string   `json:"sex"`
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	row := models.ProfileRow{UserID: userIDFromContext(r), HeightCM: req.HeightCM, Sex: req.Sex}
	if req.DateOfBirth != "" {
		dob, err := time.Parse(time.DateOnly, req.DateOfBirth)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date_of_birth must be YYYY-MM-DD"})
			return
		}
		row.DateOfBirth = &dob
	}
	if err := s.db.UpsertProfile(r.Context(), row); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// targetRequest is the JSON body for PUT /api/v1/targets/{type}.
type targetRequest struct {
	Value float64 `json:"target_value"`
	Unit  string  `json:"unit"`
}

func (s *Server) handlePutTarget(w http.ResponseWriter, r *http.Request) {
	targetType := chi.URLParam(r, "type")
	if !knownTargets()[targetType] {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown target %q", targetType)})
		return
	}
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	row := models.TargetRow{
		UserID:     userIDFromContext(r),
		TargetType: targetType,
		Value:      req.Value,
		Unit:       req.Unit,
	}
	if err := s.db.UpsertTarget(r.Context(), row); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func knownFamilies() map[metrics.Family]bool {
	out := make(map[metrics.Family]bool)
	for _, d := range metrics.Catalog() {
		out[d.Family] = true
	}
	return out
}

func knownTargets() map[string]bool {
	out := make(map[string]bool)
	for _, d := range metrics.Catalog() {
		if d.HasTarget() {
			out[d.TargetKey] = true
		}
	}
	return out
}
