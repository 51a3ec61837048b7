// Package apitest provides an in-memory stand-in for the records API so
// integration tests can exercise the real client against real HTTP.
package apitest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medrec/medrec/internal/familyhistory"
	"github.com/medrec/medrec/internal/invitation"
	"github.com/medrec/medrec/internal/paperless"
)

// currentUser is the identity the fake server attributes requests to.
const currentUser = "me"

// Server holds all state behind a mutex; handlers are registered on an
// embedded echo instance exposed through Handler.
type Server struct {
	mu sync.Mutex
	e  *echo.Echo

	token string

	invitations map[string]*invitation.Invitation
	invOrder    []string

	ownMembers    map[string]*familyhistory.FamilyMember
	sharedMembers map[string]*familyhistory.FamilyMember
	memberOrder   []string
	shares        map[string][]*familyhistory.Share

	taskScripts map[string][]paperless.TaskStatus
	taskCursor  map[string]int
	uploadPlan  []paperless.TaskStatus
	SyncUpdates []map[string]interface{}

	resources map[string]map[string]map[string]interface{}
	resOrder  map[string][]string
}

func NewServer() *Server {
	s := &Server{
		e:             echo.New(),
		invitations:   map[string]*invitation.Invitation{},
		ownMembers:    map[string]*familyhistory.FamilyMember{},
		sharedMembers: map[string]*familyhistory.FamilyMember{},
		shares:        map[string][]*familyhistory.Share{},
		taskScripts:   map[string][]paperless.TaskStatus{},
		taskCursor:    map[string]int{},
		uploadPlan:    []paperless.TaskStatus{paperless.StatusSuccess},
		resources:     map[string]map[string]map[string]interface{}{},
		resOrder:      map[string][]string{},
	}
	s.e.HideBanner = true
	s.routes()
	return s
}

// Handler returns the server as an http.Handler for httptest.NewServer.
func (s *Server) Handler() http.Handler { return s.e }

// RequireToken makes every request demand the given bearer token.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Server) routes() {
	s.e.Use(s.checkAuth)

	s.e.GET("/invitations/pending", s.listPending)
	s.e.GET("/invitations/sent", s.listSent)
	s.e.GET("/invitations/summary", s.invitationSummary)
	s.e.POST("/invitations/cleanup", s.cleanupInvitations)
	s.e.POST("/invitations/:id/respond", s.respondInvitation)
	s.e.POST("/invitations/:id/revoke", s.revokeInvitation)
	s.e.DELETE("/invitations/:id", s.cancelInvitation)

	s.e.GET("/family-history-sharing/mine", s.listMine)
	s.e.GET("/family-history-sharing/my-own", s.listMyOwn)
	s.e.GET("/family-history-sharing/shared-with-me", s.listSharedWithMe)
	s.e.GET("/family-history-sharing/shared-by-me", s.listSharedByMe)
	s.e.GET("/family-history-sharing/:id/details", s.memberDetails)
	s.e.GET("/family-history-sharing/:id/shares", s.memberShares)
	s.e.DELETE("/family-history-sharing/:id/shares/:userID", s.revokeShare)
	s.e.POST("/family-history-sharing/bulk-invite", s.bulkInvite)

	s.e.POST("/paperless/documents/upload", s.uploadDocument)
	s.e.GET("/paperless/tasks/:uuid/status", s.taskStatus)
	s.e.POST("/paperless/entity-files/update-background-task", s.updateBackgroundTask)
	s.e.POST("/paperless/cleanup", s.cleanupDocuments)

	s.e.GET("/export", s.exportBundle)

	for _, coll := range []string{
		"medications", "lab-results", "conditions", "allergies",
		"procedures", "immunizations", "treatments", "encounters", "practitioners",
	} {
		s.e.GET("/"+coll, s.listResources(coll))
		s.e.POST("/"+coll, s.createResource(coll))
		s.e.GET("/"+coll+"/:id", s.getResource(coll))
		s.e.PUT("/"+coll+"/:id", s.updateResource(coll))
		s.e.DELETE("/"+coll+"/:id", s.deleteResource(coll))
	}
}

func (s *Server) checkAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		token := s.token
		s.mu.Unlock()
		if token != "" && c.Request().Header.Get("Authorization") != "Bearer "+token {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
		}
		return next(c)
	}
}

// -- Seeding --

// AddInvitation stores an invitation, assigning an ID if absent.
func (s *Server) AddInvitation(inv *invitation.Invitation) *invitation.Invitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	s.invitations[inv.ID] = inv
	s.invOrder = append(s.invOrder, inv.ID)
	return inv
}

// AddFamilyMember stores a member owned by the current user.
func (s *Server) AddFamilyMember(m *familyhistory.FamilyMember) *familyhistory.FamilyMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.ownMembers[m.ID] = m
	s.memberOrder = append(s.memberOrder, m.ID)
	return m
}

// AddSharedMember stores a member someone else shared with the current user.
func (s *Server) AddSharedMember(m *familyhistory.FamilyMember) *familyhistory.FamilyMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.sharedMembers[m.ID] = m
	s.memberOrder = append(s.memberOrder, m.ID)
	return m
}

// AddShare grants a recipient access to a member and flags it shared.
func (s *Server) AddShare(sh *familyhistory.Share) *familyhistory.Share {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh.ID == "" {
		sh.ID = uuid.NewString()
	}
	if sh.CreatedAt.IsZero() {
		sh.CreatedAt = time.Now().UTC()
	}
	s.shares[sh.FamilyMemberID] = append(s.shares[sh.FamilyMemberID], sh)
	if m, ok := s.ownMembers[sh.FamilyMemberID]; ok {
		m.IsShared = true
	}
	return sh
}

// ScriptUploads sets the status sequence every subsequently uploaded task
// walks through, one entry per poll, sticking at the last.
func (s *Server) ScriptUploads(statuses ...paperless.TaskStatus) {
	s.mu.Lock()
	s.uploadPlan = statuses
	s.mu.Unlock()
}

// -- Invitations --

func (s *Server) listPending(c echo.Context) error {
	return c.JSON(http.StatusOK, s.selectInvitations(func(inv *invitation.Invitation) bool {
		return inv.SentTo == currentUser
	}))
}

func (s *Server) listSent(c echo.Context) error {
	return c.JSON(http.StatusOK, s.selectInvitations(func(inv *invitation.Invitation) bool {
		return inv.SentBy == currentUser
	}))
}

func (s *Server) selectInvitations(keep func(*invitation.Invitation) bool) []*invitation.Invitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*invitation.Invitation{}
	for _, id := range s.invOrder {
		if inv, ok := s.invitations[id]; ok && keep(inv) {
			out = append(out, inv)
		}
	}
	return out
}

func (s *Server) respondInvitation(c echo.Context) error {
	var req struct {
		Response     string  `json:"response"`
		ResponseNote *string `json:"response_note"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "invitation not found")
	}
	if inv.Status != invitation.StatusPending {
		return echo.NewHTTPError(http.StatusBadRequest, "invitation is not pending")
	}
	switch req.Response {
	case "accepted":
		inv.Status = invitation.StatusAccepted
	case "rejected":
		inv.Status = invitation.StatusRejected
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid response")
	}
	return c.JSON(http.StatusOK, inv)
}

func (s *Server) cancelInvitation(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "invitation not found")
	}
	if inv.Status != invitation.StatusPending {
		return echo.NewHTTPError(http.StatusBadRequest, "only pending invitations can be cancelled")
	}
	inv.Status = invitation.StatusCancelled
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) revokeInvitation(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "invitation not found")
	}
	if inv.Status == invitation.StatusRevoked {
		return echo.NewHTTPError(http.StatusBadRequest, "invitation already revoked")
	}
	if inv.Status != invitation.StatusAccepted {
		return echo.NewHTTPError(http.StatusBadRequest, "only accepted invitations can be revoked")
	}
	inv.Status = invitation.StatusRevoked
	return c.JSON(http.StatusOK, inv)
}

func (s *Server) invitationSummary(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := invitation.Summary{}
	for _, inv := range s.invitations {
		switch inv.Status {
		case invitation.StatusPending:
			if inv.SentTo == currentUser {
				sum.PendingReceived++
			}
			if inv.SentBy == currentUser {
				sum.PendingSent++
			}
		case invitation.StatusAccepted:
			sum.Accepted++
		case invitation.StatusRejected:
			sum.Rejected++
		case invitation.StatusExpired:
			sum.Expired++
		}
	}
	return c.JSON(http.StatusOK, sum)
}

func (s *Server) cleanupInvitations(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.invOrder[:0]
	removed := 0
	for _, id := range s.invOrder {
		inv := s.invitations[id]
		if inv.Status == invitation.StatusExpired || inv.Status == invitation.StatusRejected {
			delete(s.invitations, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.invOrder = kept
	return c.JSON(http.StatusOK, map[string]int{"removed": removed})
}

// -- Family history sharing --

func (s *Server) listMine(c echo.Context) error {
	return c.JSON(http.StatusOK, s.selectMembers(true, true))
}

func (s *Server) listMyOwn(c echo.Context) error {
	return c.JSON(http.StatusOK, s.selectMembers(true, false))
}

func (s *Server) listSharedWithMe(c echo.Context) error {
	return c.JSON(http.StatusOK, s.selectMembers(false, true))
}

func (s *Server) listSharedByMe(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*familyhistory.FamilyMember{}
	for _, id := range s.memberOrder {
		if m, ok := s.ownMembers[id]; ok && m.IsShared {
			out = append(out, m)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) selectMembers(own, shared bool) []*familyhistory.FamilyMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*familyhistory.FamilyMember{}
	for _, id := range s.memberOrder {
		if own {
			if m, ok := s.ownMembers[id]; ok {
				out = append(out, m)
			}
		}
		if shared {
			if m, ok := s.sharedMembers[id]; ok {
				out = append(out, m)
			}
		}
	}
	return out
}

func (s *Server) memberDetails(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if m, ok := s.ownMembers[id]; ok {
		return c.JSON(http.StatusOK, m)
	}
	if m, ok := s.sharedMembers[id]; ok {
		return c.JSON(http.StatusOK, m)
	}
	return echo.NewHTTPError(http.StatusNotFound, "family member not found")
}

func (s *Server) memberShares(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	shares := s.shares[c.Param("id")]
	if shares == nil {
		shares = []*familyhistory.Share{}
	}
	return c.JSON(http.StatusOK, shares)
}

func (s *Server) revokeShare(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	memberID, userID := c.Param("id"), c.Param("userID")
	shares := s.shares[memberID]
	kept := shares[:0]
	found := false
	for _, sh := range shares {
		if sh.SharedWithID == userID {
			found = true
			continue
		}
		kept = append(kept, sh)
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "share not found")
	}
	s.shares[memberID] = kept
	if m, ok := s.ownMembers[memberID]; ok && len(kept) == 0 {
		m.IsShared = false
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) bulkInvite(c echo.Context) error {
	var req familyhistory.BulkInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.FamilyMemberIDs) == 0 || req.SharedWithIdentifier == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "family_member_ids and shared_with_identifier are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	result := familyhistory.BulkInviteResult{Results: []*familyhistory.BulkInviteOutcome{}}
	for _, memberID := range req.FamilyMemberIDs {
		if _, ok := s.ownMembers[memberID]; !ok {
			result.TotalFailed++
			result.Results = append(result.Results, &familyhistory.BulkInviteOutcome{
				FamilyMemberID: memberID, Error: "family member not found",
			})
			continue
		}
		inv := &invitation.Invitation{
			ID:             uuid.NewString(),
			InvitationType: invitation.TypeFamilyHistoryShare,
			Status:         invitation.StatusPending,
			SentBy:         currentUser,
			SentTo:         req.SharedWithIdentifier,
			CreatedAt:      time.Now().UTC(),
		}
		s.invitations[inv.ID] = inv
		s.invOrder = append(s.invOrder, inv.ID)
		result.TotalSent++
		result.Results = append(result.Results, &familyhistory.BulkInviteOutcome{
			FamilyMemberID: memberID, Success: true, InvitationID: inv.ID,
		})
	}
	return c.JSON(http.StatusOK, result)
}

// -- Paperless --

func (s *Server) uploadDocument(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	taskUUID := uuid.NewString()
	script := make([]paperless.TaskStatus, len(s.uploadPlan))
	copy(script, s.uploadPlan)
	s.taskScripts[taskUUID] = script
	return c.JSON(http.StatusOK, paperless.UploadResult{
		TaskUUID: taskUUID,
		FileID:   uuid.NewString(),
	})
}

func (s *Server) taskStatus(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	taskUUID := c.Param("uuid")
	script, ok := s.taskScripts[taskUUID]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}
	i := s.taskCursor[taskUUID]
	if i >= len(script) {
		i = len(script) - 1
	} else {
		s.taskCursor[taskUUID] = i + 1
	}
	return c.JSON(http.StatusOK, paperless.Task{TaskUUID: taskUUID, Status: script[i]})
}

func (s *Server) updateBackgroundTask(c echo.Context) error {
	var body map[string]interface{}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.mu.Lock()
	s.SyncUpdates = append(s.SyncUpdates, body)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]bool{"updated": true})
}

func (s *Server) cleanupDocuments(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]int{"removed": 0})
}

// -- Export --

func (s *Server) exportBundle(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bundle := map[string]interface{}{
		"format": c.QueryParam("format"),
		"scope":  c.QueryParam("scope"),
	}
	for coll, items := range s.resources {
		list := []map[string]interface{}{}
		for _, id := range s.resOrder[coll] {
			list = append(list, items[id])
		}
		bundle[coll] = list
	}
	return c.JSON(http.StatusOK, bundle)
}

// -- Generic record resources --

func (s *Server) listResources(coll string) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		out := []map[string]interface{}{}
		for _, id := range s.resOrder[coll] {
			item := s.resources[coll][id]
			if status := c.QueryParam("status"); status != "" && item["status"] != status {
				continue
			}
			out = append(out, item)
		}
		if c.QueryParam("ordering") == "-created_at" {
			sort.SliceStable(out, func(i, j int) bool {
				a, _ := out[i]["created_at"].(string)
				b, _ := out[j]["created_at"].(string)
				return a > b
			})
		}
		if limit, err := strconv.Atoi(c.QueryParam("limit")); err == nil && limit > 0 && limit < len(out) {
			out = out[:limit]
		}
		return c.JSON(http.StatusOK, out)
	}
}

func (s *Server) createResource(coll string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var item map[string]interface{}
		if err := c.Bind(&item); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		id := uuid.NewString()
		item["id"] = id
		if _, ok := item["created_at"]; !ok {
			item["created_at"] = time.Now().UTC().Format(time.RFC3339)
		}
		if s.resources[coll] == nil {
			s.resources[coll] = map[string]map[string]interface{}{}
		}
		s.resources[coll][id] = item
		s.resOrder[coll] = append(s.resOrder[coll], id)
		return c.JSON(http.StatusCreated, item)
	}
}

func (s *Server) getResource(coll string) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		item, ok := s.resources[coll][c.Param("id")]
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, strings.TrimSuffix(coll, "s")+" not found")
		}
		return c.JSON(http.StatusOK, item)
	}
}

func (s *Server) updateResource(coll string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var item map[string]interface{}
		if err := c.Bind(&item); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		id := c.Param("id")
		if _, ok := s.resources[coll][id]; !ok {
			return echo.NewHTTPError(http.StatusNotFound, strings.TrimSuffix(coll, "s")+" not found")
		}
		item["id"] = id
		s.resources[coll][id] = item
		return c.JSON(http.StatusOK, item)
	}
}

func (s *Server) deleteResource(coll string) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		id := c.Param("id")
		if _, ok := s.resources[coll][id]; !ok {
			return echo.NewHTTPError(http.StatusNotFound, strings.TrimSuffix(coll, "s")+" not found")
		}
		delete(s.resources[coll], id)
		kept := s.resOrder[coll][:0]
		for _, kid := range s.resOrder[coll] {
			if kid != id {
				kept = append(kept, kid)
			}
		}
		s.resOrder[coll] = kept
		return c.NoContent(http.StatusNoContent)
	}
}
