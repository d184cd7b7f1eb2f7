package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/lamacoid/Vurmz.com-sub003/internal/blob"
	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
)

const maxUploadSize = 10 << 20 // 10MB

func (h *AdminHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.Store.ListAllMaterials(r.Context())
	if err != nil {
		slog.Error("Failed to list materials", "error", err)
		http.Error(w, "Error fetching materials", http.StatusInternalServerError)
		return
	}

	tmpl := h.Templates.Get("admin_materials.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, "admin-flash")
	data := map[string]interface{}{
		"Materials": materials,
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

func (h *AdminHandler) NewMaterialForm(w http.ResponseWriter, r *http.Request) {
	tmpl := h.Templates.Get("admin_material_form.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	tmpl.Execute(w, map[string]interface{}{
		"Material":  &models.Material{Status: "available"},
		"CsrfField": csrf.TemplateField(r),
	})
}

func (h *AdminHandler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-flash")
	defer session.Save(r, w)

	m, ok := h.materialFromForm(w, r, session)
	if !ok {
		return
	}

	if err := h.Store.CreateMaterial(r.Context(), m); err != nil {
		slog.Error("Failed to create material", "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Internal Server Error"})
		http.Redirect(w, r, "/admin/materials/new", http.StatusSeeOther)
		return
	}

	session.AddFlash(FlashMessage{Type: "success", Message: m.Name + " added."})
	http.Redirect(w, r, "/admin/materials", http.StatusSeeOther)
}

func (h *AdminHandler) EditMaterialForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	m, err := h.Store.GetMaterialByID(r.Context(), id)
	if err != nil || m == nil {
		http.NotFound(w, r)
		return
	}

	tmpl := h.Templates.Get("admin_material_form.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	tmpl.Execute(w, map[string]interface{}{
		"Material":  m,
		"CsrfField": csrf.TemplateField(r),
	})
}

func (h *AdminHandler) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-flash")
	defer session.Save(r, w)

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	existing, err := h.Store.GetMaterialByID(r.Context(), id)
	if err != nil || existing == nil {
		http.NotFound(w, r)
		return
	}

	m, ok := h.materialFromForm(w, r, session)
	if !ok {
		return
	}
	m.ID = id

	if err := h.Store.UpdateMaterial(r.Context(), m); err != nil {
		slog.Error("Failed to update material", "material_id", id, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Internal Server Error"})
		http.Redirect(w, r, "/admin/materials/"+strconv.Itoa(id)+"/edit", http.StatusSeeOther)
		return
	}
	// The field update deliberately leaves image_url alone so an edit
	// without a new upload keeps the existing photo.
	if m.ImageURL != "" && m.ImageURL != existing.ImageURL {
		if err := h.Store.UpdateMaterialImage(r.Context(), id, m.ImageURL); err != nil {
			slog.Error("Failed to update material image", "material_id", id, "error", err)
		}
	}

	session.AddFlash(FlashMessage{Type: "success", Message: m.Name + " updated."})
	http.Redirect(w, r, "/admin/materials", http.StatusSeeOther)
}

// ArchiveMaterial hides a material from the public catalog without
// losing the history on past orders.
func (h *AdminHandler) ArchiveMaterial(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-flash")
	defer session.Save(r, w)

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.Store.ArchiveMaterial(r.Context(), id); err != nil {
		slog.Error("Failed to archive material", "material_id", id, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Internal Server Error"})
	} else {
		session.AddFlash(FlashMessage{Type: "success", Message: "Material archived."})
	}
	http.Redirect(w, r, "/admin/materials", http.StatusSeeOther)
}

// materialFromForm parses the shared create/edit form, including the
// optional sample photo upload. Reports ok=false after writing the
// redirect itself.
func (h *AdminHandler) materialFromForm(w http.ResponseWriter, r *http.Request, session *sessions.Session) (*models.Material, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "Upload too large (max 10MB)."})
		http.Redirect(w, r, "/admin/materials", http.StatusSeeOther)
		return nil, false
	}

	m := &models.Material{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: r.FormValue("description"),
		Status:      "available",
	}
	if m.Name == "" {
		session.AddFlash(FlashMessage{Type: "error", Message: "Name is required."})
		http.Redirect(w, r, "/admin/materials", http.StatusSeeOther)
		return nil, false
	}
	if p, err := strconv.ParseFloat(r.FormValue("base_price"), 64); err == nil {
		m.BasePrice = p
	}

	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			slog.Error("Failed to read upload", "error", err)
			session.AddFlash(FlashMessage{Type: "error", Message: "Couldn't read the uploaded image."})
			http.Redirect(w, r, "/admin/materials", http.StatusSeeOther)
			return nil, false
		}
		key, err := blob.PutImage(r.Context(), h.Blobs, "materials", header.Filename, data)
		if err != nil {
			slog.Error("Failed to store image", "error", err)
			session.AddFlash(FlashMessage{Type: "error", Message: "Only PNG or JPEG images are accepted."})
			http.Redirect(w, r, "/admin/materials", http.StatusSeeOther)
			return nil, false
		}
		m.ImageURL = "/uploads/" + key
	}

	return m, true
}
