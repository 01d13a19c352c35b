package app

// MinPlayersToStartGame defines the minimum number of seated players
// required to start a game.
const MinPlayersToStartGame = 2

// StartingCoins is each player's coin count at game start.
const StartingCoins = 2

// StartingHandSize is the number of cards dealt to each player.
const StartingHandSize = 2

// ExchangeDrawCount is how many cards an unchallenged exchange draws.
const ExchangeDrawCount = 2
