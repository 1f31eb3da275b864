package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/dumpkey/internal/engine"
	"github.com/loykin/dumpkey/internal/gesture"
)

// Router provides embeddable HTTP handlers for the diagnostic engine.
// Endpoints:
//
//	GET  {basePath}/status    current recognizer/peer/enforcement snapshot
//	GET  {basePath}/peer      registered notification endpoint, if any
//	POST {basePath}/simulate  body: [{"button":"volume_up","pressed":true}, ...]
//	POST {basePath}/trigger   body: {"action":"capture_trace","target":"...","chord_gated":false}
//	GET  {basePath}/triggers  query: limit=... (audit journal, newest first)
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	eng      *engine.Engine
	basePath string
}

// NewRouter constructs a new Router with configurable basePath.
func NewRouter(eng *engine.Engine, basePath string) *Router {
	return &Router{eng: eng, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.GET("/peer", r.handlePeer)
	group.POST("/simulate", r.handleSimulate)
	group.POST("/trigger", r.handleTrigger)
	group.GET("/triggers", r.handleTriggers)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, eng *engine.Engine) (*http.Server, error) {
	r := NewRouter(eng, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type simEvent struct {
	Button  string `json:"button"`
	Pressed bool   `json:"pressed"`
}

type triggerReq struct {
	Action     string `json:"action"`
	Target     string `json:"target"`
	ChordGated bool   `json:"chord_gated"`
}

type triggerResp struct {
	Result     string `json:"result"`
	Dispatched bool   `json:"dispatched"`
}

func (r *Router) handleStatus(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.eng.Snapshot())
}

type peerResp struct {
	Peer     string `json:"peer,omitempty"`
	Attached bool   `json:"attached"`
}

func (r *Router) handlePeer(c *gin.Context) {
	st := r.eng.Snapshot()
	writeJSON(c, http.StatusOK, peerResp{Peer: st.Peer, Attached: st.PeerAttached})
}

func (r *Router) handleSimulate(c *gin.Context) {
	var evs []simEvent
	if err := c.ShouldBindJSON(&evs); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	for _, se := range evs {
		btn, ok := parseButton(se.Button)
		if !ok {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "unknown button: " + se.Button})
			return
		}
		r.eng.Feed(gesture.Event{Button: btn, Pressed: se.Pressed})
	}
	writeJSON(c, http.StatusOK, r.eng.Snapshot())
}

func (r *Router) handleTrigger(c *gin.Context) {
	var req triggerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	kind, ok := parseAction(req.Action)
	if !ok {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "unknown action: " + req.Action})
		return
	}
	a := gesture.Action{Kind: kind, Target: req.Target}
	if req.ChordGated {
		res, dispatched := r.eng.TriggerChordGated(a)
		writeJSON(c, http.StatusOK, triggerResp{Result: string(res), Dispatched: dispatched})
		return
	}
	res := r.eng.Trigger(a)
	writeJSON(c, http.StatusOK, triggerResp{Result: string(res), Dispatched: true})
}

func (r *Router) handleTriggers(c *gin.Context) {
	limit := 50
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	recs, err := r.eng.Recent(c.Request.Context(), limit)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, recs)
}
