package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"cropsight/api/models"
)

// handleCreateField inserts a new field with basic GeoJSON validation.
func (a *App) handleCreateField(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)

	var req createFieldReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" || len(req.Geometry) == 0 {
		http.Error(w, "name and geometry are required", http.StatusBadRequest)
		return
	}
	geom, err := parseGeometry(req.Geometry)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	meta, err := fieldMeta(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f := models.Field{
		OwnerID:   uid,
		Name:      req.Name,
		Geometry:  geom,
		CreatedAt: time.Now(),
		Photo:     req.Photo,
		Meta:      meta,
		Yields:    req.Yields,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	res, err := a.fields.InsertOne(ctx, &f)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	f.ID = res.InsertedID.(primitive.ObjectID)
	writeJSON(w, http.StatusCreated, f)
}

// handleListFields returns the current user's fields.
func (a *App) handleListFields(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	cur, err := a.fields.Find(ctx, bson.M{"ownerId": uid}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer cur.Close(ctx)

	out := []models.Field{}
	if err := cur.All(ctx, &out); err != nil {
		http.Error(w, "decode error", http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}

// handleGetField returns a single field by id (owned by the user) with the
// summary of its latest analysis.
func (a *App) handleGetField(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	f, err := a.loadField(r.Context(), uid, oid)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if last, err := a.analyses.Latest(ctx, uid, oid); err != nil {
		a.log.Warn("latest analysis", zap.String("field_id", oid.Hex()), zap.Error(err))
	} else if last != nil {
		s := last.Summary()
		f.LastAnalysis = &s
	}
	_ = json.NewEncoder(w).Encode(f)
}

// handleUpdateField updates name, geometry and crop metadata if provided.
// Stored analyses stay as they are; a changed field simply stops matching them.
func (a *App) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}

	var req createFieldReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	set := bson.M{}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if len(req.Geometry) > 0 {
		geom, err := parseGeometry(req.Geometry)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		set["geometry"] = geom
	}
	if req.AreaHa != nil {
		if *req.AreaHa < 0 {
			http.Error(w, "areaHa must not be negative", http.StatusBadRequest)
			return
		}
		set["meta.areaHa"] = req.AreaHa // store under nested meta
	}
	if req.Crop != "" {
		set["meta.crop"] = strings.ToLower(strings.TrimSpace(req.Crop))
	}
	if req.SowingDate != "" {
		d, err := parseDay(req.SowingDate)
		if err != nil {
			http.Error(w, "sowingDate must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		set["meta.sowingDate"] = d
	}
	if req.Notes != "" {
		set["meta.notes"] = req.Notes
	}
	if req.Photo != "" {
		set["photo"] = req.Photo
	}
	if len(req.Yields) > 0 {
		set["yields"] = req.Yields
	}
	if len(set) == 0 {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	res := a.fields.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid, "ownerId": uid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var out models.Field
	if err := res.Decode(&out); err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}

// handleDeleteField removes a field by id. Its analyses are kept.
func (a *App) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := a.fields.DeleteOne(ctx, bson.M{"_id": oid, "ownerId": uid})
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if res.DeletedCount == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(bson.M{"ok": true})
}

// ---- helpers ----

// parseGeometry does a minimal GeoJSON check (type + coordinates).
func parseGeometry(raw json.RawMessage) (bson.M, error) {
	var geom bson.M
	if err := json.Unmarshal(raw, &geom); err != nil {
		return nil, errors.New("invalid geometry json")
	}
	gt, _ := geom["type"].(string)
	if gt != "Polygon" && gt != "MultiPolygon" {
		return nil, errors.New("geometry.type must be Polygon or MultiPolygon")
	}
	if _, ok := geom["coordinates"].([]any); !ok {
		return nil, errors.New("geometry.coordinates must be an array")
	}
	return geom, nil
}

// fieldMeta builds the crop metadata of a new field, or nil when none was sent.
func fieldMeta(req createFieldReq) (*models.FieldMeta, error) {
	if req.AreaHa == nil && req.Crop == "" && req.SowingDate == "" && req.Notes == "" {
		return nil, nil
	}
	m := &models.FieldMeta{
		AreaHa: req.AreaHa,
		Notes:  req.Notes,
		Crop:   strings.ToLower(strings.TrimSpace(req.Crop)),
	}
	if m.AreaHa != nil && *m.AreaHa < 0 {
		return nil, errors.New("areaHa must not be negative")
	}
	if req.SowingDate != "" {
		d, err := parseDay(req.SowingDate)
		if err != nil {
			return nil, errors.New("sowingDate must be YYYY-MM-DD")
		}
		m.SowingDate = &d
	}
	return m, nil
}
