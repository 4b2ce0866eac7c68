package server

type mazePayload struct {
	Rows     []string `json:"rows"`
	CellSize float64  `json:"cellSize"`
}

type playerSnapshot struct {
	ID      string  `json:"id"`
	Slot    int     `json:"slot"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	CellX   int     `json:"cellX"`
	CellY   int     `json:"cellY"`
	Heading string  `json:"heading,omitempty"`
	Alive   bool    `json:"alive"`
	Score   int     `json:"score"`
}

type pursuerSnapshot struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Scared     bool    `json:"scared,omitempty"`
	Respawning bool    `json:"respawning,omitempty"`
}

type pelletSnapshot struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Kind string `json:"kind"`
}

type matchSnapshot struct {
	Phase                 string  `json:"phase"`
	Lives                 int     `json:"lives"`
	Level                 int     `json:"level"`
	Scores                [2]int  `json:"scores"`
	PelletsCollected      int     `json:"pelletsCollected"`
	TotalPellets          int     `json:"totalPellets"`
	PowerUpActive         bool    `json:"powerUpActive,omitempty"`
	PowerUpRemaining      float64 `json:"powerUpRemaining,omitempty"`
	SwapWindowActive      bool    `json:"swapWindowActive,omitempty"`
	SwapInitiator         int     `json:"swapInitiator,omitempty"`
	SwapWindowRemaining   float64 `json:"swapWindowRemaining,omitempty"`
	SwapOnCooldown        bool    `json:"swapOnCooldown,omitempty"`
	SwapCooldownRemaining float64 `json:"swapCooldownRemaining,omitempty"`
	TransitionRemaining   float64 `json:"transitionRemaining,omitempty"`
	HighScore             int     `json:"highScore"`
}

type joinResponse struct {
	Ver   int          `json:"ver"`
	ID    string       `json:"id"`
	Slot  int          `json:"slot"`
	Maze  mazePayload  `json:"maze"`
	State stateMessage `json:"state"`
}

type stateMessage struct {
	Ver        int               `json:"ver"`
	Type       string            `json:"type"`
	Tick       uint64            `json:"t"`
	Players    []playerSnapshot  `json:"players"`
	Pursuers   []pursuerSnapshot `json:"pursuers"`
	Pellets    []pelletSnapshot  `json:"pellets"`
	Match      matchSnapshot     `json:"match"`
	ServerTime int64             `json:"serverTime"`
}

type diagnosticsPlayer struct {
	Ver           int    `json:"ver"`
	ID            string `json:"id"`
	Slot          int    `json:"slot"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rttMillis"`
}
