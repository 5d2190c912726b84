package atomicdto

type StartRequest struct {
	Room  string `json:"room"`
	White string `json:"white"`
	Black string `json:"black"`
}

type StartResponse struct {
	State   *GameState `json:"state"`
	Resumed bool       `json:"resumed"`
}

type StatusResponse struct {
	State *GameState `json:"state"`
}

type MoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type MoveResponse struct {
	State    *GameState `json:"state"`
	From     string     `json:"from"`
	To       string     `json:"to"`
	Finished bool       `json:"finished"`
}

type ResignRequest struct {
	Color string `json:"color"`
}

type ResignResponse struct {
	State *GameState `json:"state"`
}

type ArchiveResponse struct {
	Games []*ArchivedGame `json:"games"`
}
