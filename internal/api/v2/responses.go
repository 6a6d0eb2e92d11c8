package api

import (
	"fmt"
	"time"

	"github.com/hashicorp-forge/archivist/pkg/models"
)

// CabinetResponse is the public representation of a cabinet.
type CabinetResponse struct {
	ID              uint      `json:"id"`
	Label           string    `json:"label"`
	DatetimeCreated time.Time `json:"datetime_created"`
	URL             string    `json:"url"`
	DocumentsURL    string    `json:"documents_url"`
}

func newCabinetResponse(c *models.Cabinet) CabinetResponse {
	url := fmt.Sprintf("/api/v2/cabinets/%d", c.ID)
	return CabinetResponse{
		ID:              c.ID,
		Label:           c.Label,
		DatetimeCreated: c.CreatedAt,
		URL:             url,
		DocumentsURL:    url + "/documents",
	}
}

// DocumentResponse is the public representation of a document.
type DocumentResponse struct {
	ID              uint      `json:"id"`
	UUID            string    `json:"uuid"`
	Label           string    `json:"label"`
	Description     string    `json:"description"`
	Language        string    `json:"language"`
	DatetimeCreated time.Time `json:"datetime_created"`
	URL             string    `json:"url"`
	PagesURL        string    `json:"pages_url"`
}

func newDocumentResponse(d *models.Document) DocumentResponse {
	url := fmt.Sprintf("/api/v2/documents/%d", d.ID)
	return DocumentResponse{
		ID:              d.ID,
		UUID:            d.UUID.String(),
		Label:           d.Label,
		Description:     d.Description,
		Language:        d.Language,
		DatetimeCreated: d.CreatedAt,
		URL:             url,
		PagesURL:        url + "/pages",
	}
}

func newDocumentResponses(docs []models.Document) []DocumentResponse {
	resp := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		resp = append(resp, newDocumentResponse(&docs[i]))
	}
	return resp
}

// DocumentVersionResponse is the public representation of a document
// version.
type DocumentVersionResponse struct {
	ID              uint      `json:"id"`
	DocumentID      uint      `json:"document_id"`
	Comment         string    `json:"comment"`
	MimeType        string    `json:"mimetype"`
	Checksum        string    `json:"checksum"`
	Size            int64     `json:"size"`
	PageCount       int       `json:"page_count"`
	DatetimeCreated time.Time `json:"timestamp"`
}

// DocumentPageResponse is the public representation of a document page.
type DocumentPageResponse struct {
	ID                uint   `json:"id"`
	DocumentID        uint   `json:"document_id"`
	DocumentVersionID uint   `json:"document_version_id"`
	PageNumber        int    `json:"page_number"`
	Content           string `json:"content"`
}

func newDocumentPageResponse(documentID uint, p *models.DocumentPage) DocumentPageResponse {
	return DocumentPageResponse{
		ID:                p.ID,
		DocumentID:        documentID,
		DocumentVersionID: p.DocumentVersionID,
		PageNumber:        p.PageNumber,
		Content:           p.Text(),
	}
}

// AccessGrantResponse is the public representation of an access grant.
type AccessGrantResponse struct {
	ID         uint   `json:"id"`
	Permission string `json:"permission"`
	UserID     *uint  `json:"user_id"`
	RoleID     *uint  `json:"role_id"`
	ObjectType string `json:"object_type"`
	ObjectID   *uint  `json:"object_id"`
}

func newAccessGrantResponse(g *models.AccessGrant) AccessGrantResponse {
	return AccessGrantResponse{
		ID:         g.ID,
		Permission: g.Permission,
		UserID:     g.UserID,
		RoleID:     g.RoleID,
		ObjectType: g.ObjectType,
		ObjectID:   g.ObjectID,
	}
}
