package http

import (
	"log/slog"
	"net/http"

	"fleetledger/internal/auth"
	"fleetledger/internal/core"
	"fleetledger/internal/events"
	"fleetledger/internal/store"
)

type vehicleDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlateNumber string `json:"plateNumber"`
	DriverPhone string `json:"driverPhone,omitempty"`
	Status      string `json:"status"`
	DisplayName string `json:"displayName"`
}

func toVehicleDTO(v core.Vehicle) vehicleDTO {
	return vehicleDTO{
		ID:          v.ID,
		Name:        v.Name,
		PlateNumber: v.PlateNumber,
		DriverPhone: v.DriverPhone,
		Status:      string(v.Status),
		DisplayName: v.DisplayName(),
	}
}

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	vehicles, err := s.store.ListVehicles(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]vehicleDTO, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, toVehicleDTO(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	var req struct {
		Name        string `json:"name"`
		PlateNumber string `json:"plateNumber"`
		DriverPhone string `json:"driverPhone"`
		Status      string `json:"status"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	if req.Status == "" {
		req.Status = string(core.StatusActive)
	}
	vehicle := core.Vehicle{
		Name:        sanitizeInput(req.Name),
		PlateNumber: sanitizeInput(req.PlateNumber),
		DriverPhone: sanitizeInput(req.DriverPhone),
		Status:      core.VehicleStatus(req.Status),
	}
	if err := vehicle.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	id, err := s.store.CreateVehicle(r.Context(), ownerID, vehicle)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	vehicle.ID = id

	slog.InfoContext(r.Context(), "vehicle created", "vehicle_id", id, "owner_id", ownerID)
	s.notifyChange(r.Context(), ownerID, events.EntityVehicle, events.ActionCreated, id)
	writeJSON(w, http.StatusCreated, toVehicleDTO(vehicle))
}

func (s *Server) handleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	id := r.PathValue("id")

	var req struct {
		Name        *string `json:"name"`
		PlateNumber *string `json:"plateNumber"`
		DriverPhone *string `json:"driverPhone"`
		Status      *string `json:"status"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	patch := store.VehiclePatch{}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		if name == "" {
			writeDomainError(w, core.ErrEmptyName)
			return
		}
		patch.Name = &name
	}
	if req.PlateNumber != nil {
		plate := sanitizeInput(*req.PlateNumber)
		if plate == "" {
			writeDomainError(w, core.ErrEmptyPlate)
			return
		}
		patch.PlateNumber = &plate
	}
	if req.DriverPhone != nil {
		phone := sanitizeInput(*req.DriverPhone)
		patch.DriverPhone = &phone
	}
	if req.Status != nil {
		status := core.VehicleStatus(*req.Status)
		if err := status.Validate(); err != nil {
			writeDomainError(w, err)
			return
		}
		patch.Status = &status
	}

	if err := s.store.UpdateVehicle(r.Context(), ownerID, id, patch); err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "vehicle updated", "vehicle_id", id, "owner_id", ownerID)
	s.notifyChange(r.Context(), ownerID, events.EntityVehicle, events.ActionUpdated, id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	id := r.PathValue("id")

	if err := s.store.DeleteVehicle(r.Context(), ownerID, id); err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "vehicle deleted", "vehicle_id", id, "owner_id", ownerID)
	s.notifyChange(r.Context(), ownerID, events.EntityVehicle, events.ActionDeleted, id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
