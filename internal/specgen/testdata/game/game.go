package game

import "github.com/google/uuid"

type Position struct {
	X float64 `tag:"x"`
	Y float64 `tag:"y"`
}

type Stats struct {
	Health int32   `tag:"health"`
	Mana   int16   `tag:"mp"`
	Seeds  []int64 `tag:"seeds"`
}

type Hero struct {
	ID      uuid.UUID         `tag:"id"`
	Name    string            `tag:"name"`
	Level   uint8             `tag:"level"`
	Alive   bool              `tag:"alive"`
	Stats   Stats             `tag:"stats"`
	Home    *Position         `tag:"home"`
	Labels  map[string]string `tag:"labels"`
	Next    *Hero             `tag:"next"`
	Ignored int               `tag:"-"`
	secret  string
}

func (h Hero) Secret() string { return h.secret }

type notExported struct {
	Value int
}

var _ = notExported{}
