package handler

// clients.go — client and project CRUD. These are thin enough that the
// handlers talk to the repositories directly; there is no business logic
// beyond tenant scoping and UUID parsing.

import (
	"net/http"
	"time"

	"commissionflow/internal/apierror"
	"commissionflow/internal/dto"
	"commissionflow/internal/middleware"
	"commissionflow/internal/model"
	"commissionflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ClientsHandler struct {
	clients  repository.ClientRepository
	projects repository.ProjectRepository
}

func NewClientsHandler(clients repository.ClientRepository, projects repository.ProjectRepository) *ClientsHandler {
	return &ClientsHandler{clients: clients, projects: projects}
}

// ── Clients ──────────────────────────────────────────────────────────────────

func (h *ClientsHandler) Create(c *gin.Context) {
	var req dto.CreateClientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	client := &model.Client{
		OrganizationID: claims.OrgUUID(),
		Name:           req.Name,
		Tier:           req.Tier,
		ContactEmail:   req.ContactEmail,
		Active:         true,
	}
	if req.TerritoryID != nil {
		tid, err := uuid.Parse(*req.TerritoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Invalid territory_id"))
			return
		}
		client.TerritoryID = &tid
	}
	if err := h.clients.Create(c.Request.Context(), client); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, clientToResponse(client))
}

func (h *ClientsHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	clients, err := h.clients.List(c.Request.Context(), claims.OrgUUID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Could not list clients"))
		return
	}
	out := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		out = append(out, clientToResponse(&clients[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ClientsHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.UpdateClientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	client, err := h.clients.FindByID(c.Request.Context(), claims.OrgUUID(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Client not found"))
		return
	}
	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.Tier != nil {
		client.Tier = *req.Tier
	}
	if req.ContactEmail != nil {
		client.ContactEmail = req.ContactEmail
	}
	if req.TerritoryID != nil {
		tid, err := uuid.Parse(*req.TerritoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Invalid territory_id"))
			return
		}
		client.TerritoryID = &tid
	}
	if err := h.clients.Update(c.Request.Context(), client); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, clientToResponse(client))
}

func (h *ClientsHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	claims := middleware.GetClaims(c)
	if err := h.clients.SetActive(c.Request.Context(), claims.OrgUUID(), id, false); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Projects ─────────────────────────────────────────────────────────────────

func (h *ClientsHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid client_id"))
		return
	}
	// The client must exist within the caller's organization.
	if _, err := h.clients.FindByID(c.Request.Context(), claims.OrgUUID(), clientID); err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Client not found"))
		return
	}

	project := &model.Project{
		OrganizationID: claims.OrgUUID(),
		ClientID:       clientID,
		Name:           req.Name,
		Active:         true,
	}
	if req.TerritoryID != nil {
		tid, err := uuid.Parse(*req.TerritoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Invalid territory_id"))
			return
		}
		project.TerritoryID = &tid
	}
	if err := h.projects.Create(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, projectToResponse(project))
}

func (h *ClientsHandler) ListProjects(c *gin.Context) {
	claims := middleware.GetClaims(c)
	projects, err := h.projects.List(c.Request.Context(), claims.OrgUUID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Could not list projects"))
		return
	}
	out := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, projectToResponse(&projects[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ClientsHandler) DeactivateProject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	claims := middleware.GetClaims(c)
	if err := h.projects.SetActive(c.Request.Context(), claims.OrgUUID(), id, false); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func clientToResponse(m *model.Client) dto.ClientResponse {
	resp := dto.ClientResponse{
		ID:           m.ID.String(),
		Name:         m.Name,
		Tier:         m.Tier,
		ContactEmail: m.ContactEmail,
		Active:       m.Active,
		CreatedAt:    m.CreatedAt.Format(time.RFC3339),
	}
	if m.TerritoryID != nil {
		id := m.TerritoryID.String()
		resp.TerritoryID = &id
	}
	return resp
}

func projectToResponse(m *model.Project) dto.ProjectResponse {
	resp := dto.ProjectResponse{
		ID:        m.ID.String(),
		ClientID:  m.ClientID.String(),
		Name:      m.Name,
		Active:    m.Active,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
	if m.Client != nil {
		resp.ClientName = m.Client.Name
	}
	if m.TerritoryID != nil {
		id := m.TerritoryID.String()
		resp.TerritoryID = &id
	}
	return resp
}
