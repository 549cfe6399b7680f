package config

// this holds the resolved configuration values from CLI
var (
	TrackFile    string  // path to the track definition file
	DataDir      string  // directory for persisted best times, ghosts and leaderboards
	LogLevel     string  // sets the log level (zap log level values)
	LogFormat    string  // text vs json
	LogFilter    string  // zapfilter rules for the dev logger
	PhysicsRate  int     // fixed physics steps per second
	MaxFrameSecs float64 // upper clamp for a single frame delta
	ServerAddr   string  // listen addr for the websocket session server
	RecordGhost  bool    // record a ghost during attempts
	GhostEnabled bool    // load and replay the stored ghost alongside the player
	DriverName   string  // name used for leaderboard submissions
)
