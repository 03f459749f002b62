package server

import (
	"net/http"

	"github.com/platinummonkey/moosedocs/pkg/httputil"
	"github.com/platinummonkey/moosedocs/pkg/syntax"
)

// SyntaxResponse describes one schema node.
type SyntaxResponse struct {
	Path        string              `json:"path"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Parameters  []*syntax.Parameter `json:"parameters,omitempty"`
	Children    []string            `json:"children,omitempty"`
	// Node is the full subtree, only with recursive=true.
	Node *syntax.Node `json:"node,omitempty"`
}

// getSyntax handles GET /api/syntax?path=<path>[&recursive=true]
func (s *Server) getSyntax(w http.ResponseWriter, r *http.Request) {
	path, ok := httputil.RequireQuery(w, r, "path")
	if !ok {
		return
	}
	recursive, err := httputil.ParseQueryBool(r, "recursive", false)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	tree := s.currentTree()
	if tree == nil {
		httputil.WriteServiceUnavailable(w, syntax.ErrNoSchema.Error())
		return
	}

	node, found := tree.Lookup(path)
	if !found {
		httputil.WriteNotFoundError(w, "Failed to locate syntax: "+path)
		return
	}

	resp := SyntaxResponse{
		Path:        tree.Path(node),
		Name:        node.Segment(),
		Description: node.Description,
		Parameters:  node.Parameters,
	}
	for _, child := range node.Subblocks {
		resp.Children = append(resp.Children, tree.Path(child))
	}
	if recursive {
		resp.Node = node
	}
	_ = httputil.WriteJSON(w, http.StatusOK, resp)
}

// postRebuild handles POST /api/rebuild
func (s *Server) postRebuild(w http.ResponseWriter, r *http.Request) {
	if s.rebuild == nil {
		httputil.WriteServiceUnavailable(w, "rebuilding is not enabled")
		return
	}
	if err := s.Rebuild(r.Context()); err != nil {
		s.log.WithError(err).Error("Rebuild failed")
		httputil.WriteInternalError(w, err)
		return
	}
	_ = httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "rebuilt"})
}
