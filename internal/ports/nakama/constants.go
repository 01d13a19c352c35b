package nakama

const (
	// MatchNameCoup is the authoritative match handler name registered with Nakama.
	MatchNameCoup = "coup_match"

	// RpcQuickMatch finds or creates a public lobby with an open seat.
	RpcQuickMatch = "quick_match"
	// RpcCreateRoom creates a private room and returns its id and join code.
	RpcCreateRoom = "create_room"
	// RpcJoinByCode resolves a join code to a match id.
	RpcJoinByCode = "join_by_code"
	// RpcVoiceToken signs a Vivox token for the caller.
	RpcVoiceToken = "voice_token"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame       int64 = 1
	OpProposeAction   int64 = 2
	OpSubmitResponse  int64 = 3
	OpExchangeSelect  int64 = 4
	OpReturnCard      int64 = 5
	OpLeaveLobby      int64 = 6

	// Server -> Client events
	OpSessionSnapshot    int64 = 100
	OpPlayerJoined       int64 = 101
	OpPlayerLeft         int64 = 102
	OpPlayerDisconnected int64 = 103
	OpPlayerReconnected  int64 = 104
	OpPlayerRemoved      int64 = 105
	OpLeaderChanged      int64 = 106
	OpGameStarted        int64 = 107
	OpHandDealt          int64 = 108 // sent privately
	OpActionProposed     int64 = 109
	OpResponseSubmitted  int64 = 110
	OpBlockDeclared      int64 = 111
	OpChallengeResolved  int64 = 112
	OpInfluenceLost      int64 = 113
	OpActionExecuted     int64 = 114
	OpActionCancelled    int64 = 115
	OpExchangeOffer      int64 = 116 // sent privately
	OpExchangeCompleted  int64 = 117
	OpCardReturned       int64 = 118
	OpTurnChanged        int64 = 119
	OpPlayerEliminated   int64 = 120
	OpGameEnded          int64 = 121
	OpGameError          int64 = 199
)
