package fleetsim

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/railops/railops/internal/models"
)

var (
	errNotFound           = errors.New("not found")
	errInvalidCredentials = errors.New("invalid credentials")
)

type userRecord struct {
	ID           string
	Email        string
	PasswordHash []byte
	Profile      models.Profile
	Preferences  models.Preferences
}

// store holds all simulator data in memory behind one lock. Values are
// copied on the way in and out.
type store struct {
	mu         sync.RWMutex
	users      map[string]*userRecord
	emailIndex map[string]string
	trainsets  map[string]*models.Trainset
	components map[string]*models.Component
	mileage    []models.MileageLog
	activity   []models.ActivityEntry
}

func newStore() (*store, error) {
	s := &store{
		users:      make(map[string]*userRecord),
		emailIndex: make(map[string]string),
		trainsets:  make(map[string]*models.Trainset),
		components: make(map[string]*models.Component),
	}
	if err := s.seed(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *store) seed() error {
	users := []struct {
		email, password, name, phone, designation, depot string
	}{
		{"asha@railops.in", "depot-wheels-42", "Asha Nair", "+919840012345", "Rolling Stock Engineer", "Muttom"},
		{"vikram@railops.in", "pantograph-9", "Vikram Rao", "+919840054321", "Depot Supervisor", "Kalamassery"},
	}
	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.email, err)
		}
		now := time.Now()
		rec := &userRecord{
			ID:           uuid.New().String(),
			Email:        u.email,
			PasswordHash: hash,
			Profile: models.Profile{
				ID:          "",
				Name:        u.name,
				Email:       u.email,
				Phone:       u.phone,
				Designation: u.designation,
				Depot:       u.depot,
				CreatedAt:   now,
				UpdatedAt:   now,
			},
			Preferences: models.Preferences{
				EmailAlerts:       true,
				SMSAlerts:         false,
				MaintenanceDigest: true,
				MileageUnit:       "km",
				Theme:             "system",
			},
		}
		rec.Profile.ID = rec.ID
		s.users[rec.ID] = rec
		s.emailIndex[strings.ToLower(u.email)] = rec.ID
	}

	commissioned := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	seeds := []struct {
		code, status, depot string
		mileage             float64
	}{
		{"TS-101", models.TrainsetInService, "Muttom", 182450.5},
		{"TS-102", models.TrainsetInService, "Muttom", 179310.0},
		{"TS-103", models.TrainsetMaintenance, "Kalamassery", 201874.2},
		{"TS-104", models.TrainsetStandby, "Muttom", 88210.7},
	}
	for i, t := range seeds {
		ts := &models.Trainset{
			ID:               uuid.New().String(),
			Code:             t.code,
			Status:           t.status,
			Depot:            t.depot,
			CurrentMileageKM: t.mileage,
			CommissionedAt:   commissioned.AddDate(0, i, 0),
			UpdatedAt:        time.Now(),
		}
		s.trainsets[ts.ID] = ts

		for j, name := range []string{"Traction Motor", "Brake Caliper", "HVAC Unit"} {
			status := models.ComponentHealthy
			if t.status == models.TrainsetMaintenance && j == 1 {
				status = models.ComponentDueService
			}
			comp := &models.Component{
				ID:          uuid.New().String(),
				TrainsetID:  ts.ID,
				Name:        name,
				SerialNo:    fmt.Sprintf("%s-%s-%02d", t.code, strings.ToUpper(name[:2]), j+1),
				Category:    "bogie",
				Status:      status,
				InstalledAt: ts.CommissionedAt,
				UpdatedAt:   time.Now(),
			}
			if name == "HVAC Unit" {
				comp.Category = "saloon"
			}
			s.components[comp.ID] = comp
		}

		for d := 1; d <= 2; d++ {
			s.mileage = append(s.mileage, models.MileageLog{
				ID:         uuid.New().String(),
				TrainsetID: ts.ID,
				LogDate:    time.Now().AddDate(0, 0, -d),
				DistanceKM: 412.5 + float64(d*7),
				EnergyKWh:  1180 + float64(d*22),
				RecordedBy: "asha@railops.in",
				CreatedAt:  time.Now().AddDate(0, 0, -d),
			})
		}
	}
	return nil
}

// --- users ---

func (s *store) authenticate(email, password string) (userRecord, error) {
	s.mu.RLock()
	id, ok := s.emailIndex[strings.ToLower(email)]
	if !ok {
		s.mu.RUnlock()
		return userRecord{}, errInvalidCredentials
	}
	rec := s.users[id]
	hash := rec.PasswordHash
	s.mu.RUnlock()

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return userRecord{}, errInvalidCredentials
	}
	return *rec, nil
}

func (s *store) userIDByEmail(email string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[strings.ToLower(email)]
	return id, ok
}

func (s *store) user(id string) (userRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return userRecord{}, errNotFound
	}
	return *rec, nil
}

func (s *store) updateProfile(id string, apply func(*models.Profile)) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return models.Profile{}, errNotFound
	}
	apply(&rec.Profile)
	rec.Profile.ID = rec.ID
	rec.Profile.UpdatedAt = time.Now()
	return rec.Profile, nil
}

func (s *store) preferences(id string) (models.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return models.Preferences{}, errNotFound
	}
	return rec.Preferences, nil
}

func (s *store) updatePreferences(id string, prefs models.Preferences) (models.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return models.Preferences{}, errNotFound
	}
	rec.Preferences = prefs
	return rec.Preferences, nil
}

func (s *store) changePassword(id, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return errNotFound
	}
	if err := bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(current)); err != nil {
		return errInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	rec.PasswordHash = hash
	return nil
}

// --- trainsets ---

func (s *store) listTrainsets(status string) []models.Trainset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Trainset, 0, len(s.trainsets))
	for _, ts := range s.trainsets {
		if status != "" && ts.Status != status {
			continue
		}
		out = append(out, *ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (s *store) trainset(id string) (models.Trainset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.trainsets[id]
	if !ok {
		return models.Trainset{}, errNotFound
	}
	return *ts, nil
}

func (s *store) createTrainset(ts models.Trainset) models.Trainset {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts.ID = uuid.New().String()
	ts.UpdatedAt = time.Now()
	s.trainsets[ts.ID] = &ts
	return ts
}

func (s *store) updateTrainset(id string, apply func(*models.Trainset)) (models.Trainset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.trainsets[id]
	if !ok {
		return models.Trainset{}, errNotFound
	}
	apply(ts)
	ts.ID = id
	ts.UpdatedAt = time.Now()
	return *ts, nil
}

func (s *store) deleteTrainset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trainsets[id]; !ok {
		return errNotFound
	}
	delete(s.trainsets, id)
	for cid, comp := range s.components {
		if comp.TrainsetID == id {
			delete(s.components, cid)
		}
	}
	return nil
}

// --- components ---

func (s *store) listComponents(trainsetID string) []models.Component {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Component, 0, len(s.components))
	for _, comp := range s.components {
		if trainsetID != "" && comp.TrainsetID != trainsetID {
			continue
		}
		out = append(out, *comp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SerialNo < out[j].SerialNo })
	return out
}

func (s *store) component(id string) (models.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comp, ok := s.components[id]
	if !ok {
		return models.Component{}, errNotFound
	}
	return *comp, nil
}

func (s *store) createComponent(comp models.Component) (models.Component, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trainsets[comp.TrainsetID]; !ok {
		return models.Component{}, errNotFound
	}
	comp.ID = uuid.New().String()
	comp.UpdatedAt = time.Now()
	s.components[comp.ID] = &comp
	return comp, nil
}

func (s *store) updateComponent(id string, apply func(*models.Component)) (models.Component, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comp, ok := s.components[id]
	if !ok {
		return models.Component{}, errNotFound
	}
	apply(comp)
	comp.ID = id
	comp.UpdatedAt = time.Now()
	return *comp, nil
}

func (s *store) deleteComponent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.components[id]; !ok {
		return errNotFound
	}
	delete(s.components, id)
	return nil
}

// --- mileage ---

func (s *store) listMileage(trainsetID string, from, to time.Time) []models.MileageLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.MileageLog
	for _, log := range s.mileage {
		if trainsetID != "" && log.TrainsetID != trainsetID {
			continue
		}
		if !from.IsZero() && log.LogDate.Before(from) {
			continue
		}
		if !to.IsZero() && log.LogDate.After(to) {
			continue
		}
		out = append(out, log)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LogDate.After(out[j].LogDate) })
	return out
}

func (s *store) mileageLog(id string) (models.MileageLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, log := range s.mileage {
		if log.ID == id {
			return log, nil
		}
	}
	return models.MileageLog{}, errNotFound
}

func (s *store) createMileage(log models.MileageLog) (models.MileageLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.trainsets[log.TrainsetID]
	if !ok {
		return models.MileageLog{}, errNotFound
	}
	log.ID = uuid.New().String()
	log.CreatedAt = time.Now()
	s.mileage = append(s.mileage, log)
	ts.CurrentMileageKM += log.DistanceKM
	ts.UpdatedAt = time.Now()
	return log, nil
}

// updateMileage corrects a log entry in place. The owning trainset keeps its
// id; the odometer moves by the distance delta.
func (s *store) updateMileage(id string, apply func(*models.MileageLog)) (models.MileageLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.mileage {
		if s.mileage[i].ID != id {
			continue
		}
		previous := s.mileage[i].DistanceKM
		apply(&s.mileage[i])
		s.mileage[i].ID = id
		if ts, ok := s.trainsets[s.mileage[i].TrainsetID]; ok {
			ts.CurrentMileageKM += s.mileage[i].DistanceKM - previous
			ts.UpdatedAt = time.Now()
		}
		return s.mileage[i], nil
	}
	return models.MileageLog{}, errNotFound
}

func (s *store) deleteMileage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.mileage {
		if s.mileage[i].ID != id {
			continue
		}
		if ts, ok := s.trainsets[s.mileage[i].TrainsetID]; ok {
			ts.CurrentMileageKM -= s.mileage[i].DistanceKM
			ts.UpdatedAt = time.Now()
		}
		s.mileage = append(s.mileage[:i], s.mileage[i+1:]...)
		return nil
	}
	return errNotFound
}

// --- dashboard ---

func (s *store) kpis() models.KPISnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := models.KPISnapshot{GeneratedAt: time.Now()}
	for _, ts := range s.trainsets {
		snap.FleetSize++
		snap.TotalMileageKM += ts.CurrentMileageKM
		switch ts.Status {
		case models.TrainsetInService:
			snap.InService++
		case models.TrainsetMaintenance:
			snap.UnderMaintenance++
		case models.TrainsetStandby:
			snap.Standby++
		}
	}
	for _, comp := range s.components {
		if comp.Status != models.ComponentHealthy {
			snap.OpenComponentFaults++
		}
	}
	if snap.FleetSize > 0 {
		snap.AvailabilityPct = 100 * float64(snap.InService+snap.Standby) / float64(snap.FleetSize)
	}
	return snap
}

func (s *store) recordActivity(actor, action, subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, models.ActivityEntry{
		ID:         uuid.New().String(),
		Actor:      actor,
		Action:     action,
		Subject:    subject,
		OccurredAt: time.Now(),
	})
}

func (s *store) listActivity(limit int) []models.ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ActivityEntry, len(s.activity))
	copy(out, s.activity)
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
