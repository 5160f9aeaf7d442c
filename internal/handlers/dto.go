package handlers

import (
	"fmt"
	"strings"

	"github.com/gorilla/schema"

	"github.com/vancomm/shapesweeper/internal/catalog"
	"github.com/vancomm/shapesweeper/internal/mines"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}

type CreateGameDTO struct {
	Map  string `schema:"map,required"`
	Mode int    `schema:"mode"`
}

func ParseCreateGameDTO(src map[string][]string) (CreateGameDTO, error) {
	var dto CreateGameDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

type MoveDTO struct {
	Move string `schema:"move,required"`
	Row  int    `schema:"row,required"`
	Col  int    `schema:"col,required"`
}

func (m MoveDTO) Point() mines.Point {
	return mines.Point{Row: m.Row, Col: m.Col}
}

func ParseMoveDTO(src map[string][]string) (MoveDTO, error) {
	var dto MoveDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

type ModeDTO struct {
	Mode int `schema:"mode,required"`
}

func ParseModeDTO(src map[string][]string) (ModeDTO, error) {
	var dto ModeDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

type GameMove uint8

const (
	Open GameMove = iota + 1
	Flag
	Chord
)

func (m GameMove) String() string {
	switch m {
	case Open:
		return "open"
	case Flag:
		return "flag"
	case Chord:
		return "chord"
	}
	return fmt.Sprintf("GameMove(%d)", uint8(m))
}

var ErrBadMove = fmt.Errorf("move must be one of 'open', 'flag', 'chord'")

func ParseGameMove(s string) (GameMove, error) {
	switch strings.ToLower(s) {
	case "open":
		return Open, nil
	case "flag":
		return Flag, nil
	case "chord":
		return Chord, nil
	}
	return 0, ErrBadMove
}

// MapSummaryDTO is one gallery entry.
type MapSummaryDTO struct {
	Name  string `json:"name"`
	Img   string `json:"img,omitempty"`
	Modes int    `json:"modes"`
}

func NewMapSummaryDTO(m catalog.Map) MapSummaryDTO {
	return MapSummaryDTO{Name: m.Name, Img: m.Img, Modes: len(m.Modes)}
}

type ModeDetailDTO struct {
	Mode      int `json:"mode"`
	Rows      int `json:"rows"`
	Cols      int `json:"cols"`
	Cells     int `json:"cells"`
	MineCount int `json:"mine_count"`
}

type MapDetailDTO struct {
	Name  string          `json:"name"`
	Img   string          `json:"img,omitempty"`
	Modes []ModeDetailDTO `json:"modes"`
}

func NewMapDetailDTO(m catalog.Map) MapDetailDTO {
	dto := MapDetailDTO{
		Name:  m.Name,
		Img:   m.Img,
		Modes: make([]ModeDetailDTO, 0, len(m.Modes)),
	}
	for i, mode := range m.Modes {
		l := mode.Layout()
		dto.Modes = append(dto.Modes, ModeDetailDTO{
			Mode:      i,
			Rows:      l.Rows,
			Cols:      l.Cols,
			Cells:     l.Size(),
			MineCount: mines.MineCount(l.Size()),
		})
	}
	return dto
}
