// Package model holds the GORM table definitions for recorded runs.
package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []any{
	&Run{},
	&TickRecord{},
	&CommandRecord{},
}

// Run is one pipeline session.
type Run struct {
	ID        string       `json:"id" gorm:"primaryKey;size:36"`
	Mode      string       `json:"mode" gorm:"size:16"`
	Source    string       `json:"source" gorm:"size:32"`
	Transport string       `json:"transport" gorm:"size:32"`
	StartTime time.Time    `json:"startTime" gorm:"index:idx_run_start_time"`
	EndTime   sql.NullTime `json:"endTime"`
	Tag       string       `json:"tag" gorm:"size:127"`
}

func (*Run) TableName() string {
	return "runs"
}

// TickRecord is the navigation state after one navigator tick.
type TickRecord struct {
	ID    uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time  time.Time `json:"time" gorm:"index:idx_tickrecord_time"`
	RunID string    `json:"runId" gorm:"size:36;index:idx_tickrecord_run_id"`
	Run   Run       `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`

	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Heading         float64 `json:"heading"`
	DecisionCounter int     `json:"decisionCounter"`
	Evasive         bool    `json:"evasive" gorm:"default:false"`
	Lost            bool    `json:"lost" gorm:"default:false"`

	Rays     datatypes.JSON `json:"rays"`                      // []core.RayReading
	RayPaths string         `json:"rayPaths" gorm:"type:text"` // MULTILINESTRING WKT, one line per ray

	Light bool `json:"light"`
	Speed int  `json:"speed"`
	Right int  `json:"right"`
	Left  int  `json:"left"`
}

func (*TickRecord) TableName() string {
	return "tick_records"
}

// CommandRecord is one wire command handed to the transport.
type CommandRecord struct {
	ID    uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time  time.Time `json:"time" gorm:"index:idx_commandrecord_time"`
	RunID string    `json:"runId" gorm:"size:36;index:idx_commandrecord_run_id"`
	Run   Run       `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`

	Wire  string `json:"wire" gorm:"size:30"`
	Sent  bool   `json:"sent"`
	Error string `json:"error" gorm:"size:255"`
}

func (*CommandRecord) TableName() string {
	return "command_records"
}
