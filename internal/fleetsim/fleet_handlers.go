package fleetsim

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/railops/railops/internal/models"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.user(userID(r))
	if err != nil {
		respondError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}
	respondJSON(w, http.StatusOK, user.Profile)
}

type profileInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Designation string `json:"designation"`
	Depot       string `json:"depot"`
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var input profileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if input.Name == "" || input.Email == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Name and email are required")
		return
	}

	profile, err := s.store.updateProfile(userID(r), func(p *models.Profile) {
		p.Name = input.Name
		p.Email = input.Email
		p.Phone = input.Phone
		p.Designation = input.Designation
		p.Depot = input.Depot
	})
	if err != nil {
		respondError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}
	s.store.recordActivity(userEmail(r), "updated profile", profile.Name)
	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handlePatchProfile(w http.ResponseWriter, r *http.Request) {
	var patch models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	profile, err := s.store.updateProfile(userID(r), func(p *models.Profile) {
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Email != nil {
			p.Email = *patch.Email
		}
		if patch.Phone != nil {
			p.Phone = *patch.Phone
		}
		if patch.Designation != nil {
			p.Designation = *patch.Designation
		}
		if patch.Depot != nil {
			p.Depot = *patch.Depot
		}
	})
	if err != nil {
		respondError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.store.preferences(userID(r))
	if err != nil {
		respondError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs models.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	updated, err := s.store.updatePreferences(userID(r), prefs)
	if err != nil {
		respondError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

type trainsetListResponse struct {
	Trainsets []models.Trainset `json:"trainsets"`
}

func (s *Server) handleListTrainsets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, trainsetListResponse{
		Trainsets: s.store.listTrainsets(r.URL.Query().Get("status")),
	})
}

func (s *Server) handleGetTrainset(w http.ResponseWriter, r *http.Request) {
	ts, err := s.store.trainset(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "TRAINSET_NOT_FOUND", "No such trainset")
		return
	}
	respondJSON(w, http.StatusOK, ts)
}

type trainsetInput struct {
	Code             string    `json:"code"`
	Status           string    `json:"status"`
	Depot            string    `json:"depot"`
	CurrentMileageKM float64   `json:"current_mileage_km"`
	CommissionedAt   time.Time `json:"commissioned_at"`
}

func validTrainsetStatus(status string) bool {
	switch status {
	case models.TrainsetInService, models.TrainsetStandby, models.TrainsetMaintenance, models.TrainsetWithdrawn:
		return true
	}
	return false
}

func (s *Server) handleCreateTrainset(w http.ResponseWriter, r *http.Request) {
	var input trainsetInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if input.Code == "" || !validTrainsetStatus(input.Status) {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Code and a valid status are required")
		return
	}

	ts := s.store.createTrainset(models.Trainset{
		Code:             input.Code,
		Status:           input.Status,
		Depot:            input.Depot,
		CurrentMileageKM: input.CurrentMileageKM,
		CommissionedAt:   input.CommissionedAt,
	})
	s.store.recordActivity(userEmail(r), "created trainset", ts.Code)
	respondJSON(w, http.StatusCreated, ts)
}

func (s *Server) handleUpdateTrainset(w http.ResponseWriter, r *http.Request) {
	var input trainsetInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if input.Code == "" || !validTrainsetStatus(input.Status) {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Code and a valid status are required")
		return
	}

	ts, err := s.store.updateTrainset(mux.Vars(r)["id"], func(t *models.Trainset) {
		t.Code = input.Code
		t.Status = input.Status
		t.Depot = input.Depot
		t.CurrentMileageKM = input.CurrentMileageKM
		t.CommissionedAt = input.CommissionedAt
	})
	if err != nil {
		respondError(w, http.StatusNotFound, "TRAINSET_NOT_FOUND", "No such trainset")
		return
	}
	s.store.recordActivity(userEmail(r), "updated trainset", ts.Code)
	respondJSON(w, http.StatusOK, ts)
}

func (s *Server) handleDeleteTrainset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ts, err := s.store.trainset(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "TRAINSET_NOT_FOUND", "No such trainset")
		return
	}
	if err := s.store.deleteTrainset(id); err != nil {
		respondError(w, http.StatusNotFound, "TRAINSET_NOT_FOUND", "No such trainset")
		return
	}
	s.store.recordActivity(userEmail(r), "withdrew trainset", ts.Code)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Trainset deleted"})
}

type componentListResponse struct {
	Components []models.Component `json:"components"`
}

func (s *Server) handleListComponents(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, componentListResponse{
		Components: s.store.listComponents(r.URL.Query().Get("trainset_id")),
	})
}

func (s *Server) handleGetComponent(w http.ResponseWriter, r *http.Request) {
	comp, err := s.store.component(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "COMPONENT_NOT_FOUND", "No such component")
		return
	}
	respondJSON(w, http.StatusOK, comp)
}

type componentInput struct {
	TrainsetID  string    `json:"trainset_id"`
	Name        string    `json:"name"`
	SerialNo    string    `json:"serial_no"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	InstalledAt time.Time `json:"installed_at"`
}

func validComponentStatus(status string) bool {
	switch status {
	case models.ComponentHealthy, models.ComponentDueService, models.ComponentFailed:
		return true
	}
	return false
}

func (s *Server) handleCreateComponent(w http.ResponseWriter, r *http.Request) {
	var input componentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if input.TrainsetID == "" || input.Name == "" || !validComponentStatus(input.Status) {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "trainset_id, name and a valid status are required")
		return
	}

	comp, err := s.store.createComponent(models.Component{
		TrainsetID:  input.TrainsetID,
		Name:        input.Name,
		SerialNo:    input.SerialNo,
		Category:    input.Category,
		Status:      input.Status,
		InstalledAt: input.InstalledAt,
	})
	if err != nil {
		respondError(w, http.StatusNotFound, "TRAINSET_NOT_FOUND", "No such trainset")
		return
	}
	s.store.recordActivity(userEmail(r), "installed component", comp.Name)
	respondJSON(w, http.StatusCreated, comp)
}

func (s *Server) handleUpdateComponent(w http.ResponseWriter, r *http.Request) {
	var input componentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if !validComponentStatus(input.Status) {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "A valid status is required")
		return
	}

	comp, err := s.store.updateComponent(mux.Vars(r)["id"], func(c *models.Component) {
		c.Name = input.Name
		c.SerialNo = input.SerialNo
		c.Category = input.Category
		c.Status = input.Status
		c.InstalledAt = input.InstalledAt
	})
	if err != nil {
		respondError(w, http.StatusNotFound, "COMPONENT_NOT_FOUND", "No such component")
		return
	}
	s.store.recordActivity(userEmail(r), "updated component", comp.Name)
	respondJSON(w, http.StatusOK, comp)
}

func (s *Server) handleDeleteComponent(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteComponent(mux.Vars(r)["id"]); err != nil {
		respondError(w, http.StatusNotFound, "COMPONENT_NOT_FOUND", "No such component")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Component deleted"})
}

type mileageListResponse struct {
	Logs []models.MileageLog `json:"logs"`
}

func (s *Server) handleListMileage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var from, to time.Time
	if raw := query.Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "from must be an RFC 3339 timestamp")
			return
		}
		from = parsed
	}
	if raw := query.Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "to must be an RFC 3339 timestamp")
			return
		}
		to = parsed
	}
	respondJSON(w, http.StatusOK, mileageListResponse{
		Logs: s.store.listMileage(query.Get("trainset_id"), from, to),
	})
}

func (s *Server) handleGetMileage(w http.ResponseWriter, r *http.Request) {
	log, err := s.store.mileageLog(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "MILEAGE_LOG_NOT_FOUND", "No such mileage log")
		return
	}
	respondJSON(w, http.StatusOK, log)
}

type mileageInput struct {
	TrainsetID string    `json:"trainset_id"`
	LogDate    time.Time `json:"log_date"`
	DistanceKM float64   `json:"distance_km"`
	EnergyKWh  float64   `json:"energy_kwh"`
	Notes      string    `json:"notes"`
}

func (s *Server) handleCreateMileage(w http.ResponseWriter, r *http.Request) {
	var input mileageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if input.TrainsetID == "" || input.DistanceKM < 0 {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "trainset_id and a non-negative distance are required")
		return
	}

	log, err := s.store.createMileage(models.MileageLog{
		TrainsetID: input.TrainsetID,
		LogDate:    input.LogDate,
		DistanceKM: input.DistanceKM,
		EnergyKWh:  input.EnergyKWh,
		Notes:      input.Notes,
		RecordedBy: userEmail(r),
	})
	if err != nil {
		if errors.Is(err, errNotFound) {
			respondError(w, http.StatusNotFound, "TRAINSET_NOT_FOUND", "No such trainset")
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record mileage")
		return
	}
	s.store.recordActivity(userEmail(r), "logged mileage", log.TrainsetID)
	respondJSON(w, http.StatusCreated, log)
}

func (s *Server) handleUpdateMileage(w http.ResponseWriter, r *http.Request) {
	var input mileageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if input.DistanceKM < 0 {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "A non-negative distance is required")
		return
	}

	// The owning trainset is fixed at creation; the input's trainset_id is
	// ignored on update.
	log, err := s.store.updateMileage(mux.Vars(r)["id"], func(m *models.MileageLog) {
		m.LogDate = input.LogDate
		m.DistanceKM = input.DistanceKM
		m.EnergyKWh = input.EnergyKWh
		m.Notes = input.Notes
	})
	if err != nil {
		respondError(w, http.StatusNotFound, "MILEAGE_LOG_NOT_FOUND", "No such mileage log")
		return
	}
	s.store.recordActivity(userEmail(r), "corrected mileage", log.TrainsetID)
	respondJSON(w, http.StatusOK, log)
}

func (s *Server) handleDeleteMileage(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteMileage(mux.Vars(r)["id"]); err != nil {
		respondError(w, http.StatusNotFound, "MILEAGE_LOG_NOT_FOUND", "No such mileage log")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Mileage log deleted"})
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.kpis())
}

type activityResponse struct {
	Entries []models.ActivityEntry `json:"entries"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}
	respondJSON(w, http.StatusOK, activityResponse{Entries: s.store.listActivity(limit)})
}
