package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/afrimart/marketplace-backend/internal/domain"
	"github.com/afrimart/marketplace-backend/internal/services"
)

type fakeGroups struct {
	createErr error
	getErr    error
	joinErr   error

	created services.GroupInput
	joined  []string
	left    []string
}

func (f *fakeGroups) Create(_ context.Context, creatorID string, in services.GroupInput) (*domain.Group, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = in
	return &domain.Group{ID: testUUID, Name: in.Name, CreatedBy: creatorID}, nil
}

func (f *fakeGroups) Get(_ context.Context, id string) (*domain.Group, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &domain.Group{ID: id}, nil
}

func (f *fakeGroups) List(_ context.Context) ([]domain.Group, error) { return nil, nil }

func (f *fakeGroups) Join(_ context.Context, groupID, userID string) error {
	if f.joinErr != nil {
		return f.joinErr
	}
	f.joined = append(f.joined, groupID+":"+userID)
	return nil
}

func (f *fakeGroups) Leave(_ context.Context, groupID, userID string) error {
	f.left = append(f.left, groupID+":"+userID)
	return nil
}

func (f *fakeGroups) Messages(_ context.Context, _ string) ([]domain.GroupMessage, error) {
	return nil, nil
}

type fakeGroupMessenger struct {
	err error
}

func (f *fakeGroupMessenger) SendGroupMessage(_ context.Context, groupID, senderID, text string) (*domain.GroupMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.GroupMessage{ID: "gm1", GroupID: groupID, SenderID: senderID, Body: text}, nil
}

func groupRouter(svc GroupService, m GroupMessenger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewGroupHandlers(svc, m)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userID", "u1"); c.Next() })
	r.POST("/groups", h.Create)
	r.GET("/groups", h.List)
	r.GET("/groups/:id", h.Get)
	r.POST("/groups/:id/join", h.Join)
	r.POST("/groups/:id/leave", h.Leave)
	r.GET("/groups/:id/messages", h.Messages)
	r.POST("/groups/:id/messages", h.SendMessage)
	return r
}

func TestCreateGroup(t *testing.T) {
	r := groupRouter(&fakeGroups{}, &fakeGroupMessenger{})
	body, _ := json.Marshal(CreateGroupRequest{Name: "Lagos electronics"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/groups", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateGroup_BindsAllFields(t *testing.T) {
	svc := &fakeGroups{}
	r := groupRouter(svc, &fakeGroupMessenger{})
	body, _ := json.Marshal(CreateGroupRequest{
		Name:        "Lagos electronics",
		Description: "Buy and sell electronics around Lagos",
		Category:    "Electronics",
		Location:    "Lagos",
		CoverImage:  "/static/uploads/covers/lagos.png",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/groups", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	want := services.GroupInput{
		Name:        "Lagos electronics",
		Description: "Buy and sell electronics around Lagos",
		Category:    "Electronics",
		Location:    "Lagos",
		CoverImage:  "/static/uploads/covers/lagos.png",
	}
	if svc.created != want {
		t.Fatalf("service input = %+v, want %+v", svc.created, want)
	}
}

func TestListGroups_EmptyIsArray(t *testing.T) {
	r := groupRouter(&fakeGroups{}, &fakeGroupMessenger{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/groups", nil))
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("expected empty array, got %d %s", w.Code, w.Body.String())
	}
}

func TestJoinLeaveGroup(t *testing.T) {
	svc := &fakeGroups{}
	r := groupRouter(svc, &fakeGroupMessenger{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/groups/"+testUUID+"/join", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("join: expected 204, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/groups/"+testUUID+"/leave", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("leave: expected 204, got %d", w.Code)
	}
	if len(svc.joined) != 1 || svc.joined[0] != testUUID+":u1" {
		t.Fatalf("join not recorded: %v", svc.joined)
	}
	if len(svc.left) != 1 {
		t.Fatalf("leave not recorded: %v", svc.left)
	}
}

func TestJoinGroup_NotFound(t *testing.T) {
	r := groupRouter(&fakeGroups{joinErr: services.ErrGroupNotFound}, &fakeGroupMessenger{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/groups/"+testUUID+"/join", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSendGroupMessage(t *testing.T) {
	r := groupRouter(&fakeGroups{}, &fakeGroupMessenger{})
	body, _ := json.Marshal(SendMessageRequest{Text: "anyone selling a lamp?"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/groups/"+testUUID+"/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSendGroupMessage_Empty(t *testing.T) {
	r := groupRouter(&fakeGroups{}, &fakeGroupMessenger{err: services.ErrEmptyMessage})
	body, _ := json.Marshal(SendMessageRequest{Text: "   "})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/groups/"+testUUID+"/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
