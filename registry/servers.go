package registry

import (
	"botmaster-console/models"
	"context"
)

type Servers struct {
	c *Client
}

func NewServers(c *Client) *Servers {
	return &Servers{c: c}
}

func (s *Servers) List(ctx context.Context) ([]models.GameServer, error) {
	var data struct {
		Servers []models.GameServer `json:"servers"`
	}
	if _, err := s.c.get(ctx, "list servers", "/api/server/list", &data); err != nil {
		return nil, err
	}
	return data.Servers, nil
}

func (s *Servers) Add(ctx context.Context, host string, port int) (*Reply, error) {
	return s.c.post(ctx, "add server", "/api/server/add", models.AddServerRequest{Host: host, Port: port}, nil)
}

func (s *Servers) Delete(ctx context.Context, id int64) (*Reply, error) {
	return s.c.post(ctx, "delete server", "/api/server/delete", map[string]int64{"dbid": id}, nil)
}

// Query asks the registry to refresh the server's live status.
func (s *Servers) Query(ctx context.Context, id int64) (*Reply, error) {
	return s.c.post(ctx, "query server", "/api/server/query", map[string]int64{"server_id": id}, nil)
}
