// Package models holds the GORM models of the congregation records
// database.
package models

import "time"

// Sister is a member of the congregation
type Sister struct {
	ID            uint       `gorm:"primaryKey;column:id" json:"id"`
	FirstName     string     `gorm:"column:first_name" json:"first_name"`
	LastName      string     `gorm:"column:last_name" json:"last_name"`
	ReligiousName string     `gorm:"column:religious_name" json:"religious_name"`
	Status        string     `gorm:"column:status" json:"status"`
	BirthDate     *time.Time `gorm:"column:birth_date" json:"birth_date,omitempty"`
	CommunityID   *uint      `gorm:"column:community_id" json:"community_id,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Sister) TableName() string { return "sisters" }

func (s Sister) GetPrimaryKeyValue() any { return s.ID }

// RelatedResources lists resources whose reads join sisters
func (Sister) RelatedResources() []string { return []string{"communities", "missions"} }

func (s *Sister) SetID(id uint) { s.ID = id }

// Community is a house where sisters live
type Community struct {
	ID          uint      `gorm:"primaryKey;column:id" json:"id"`
	Name        string    `gorm:"column:name" json:"name"`
	City        string    `gorm:"column:city" json:"city"`
	Country     string    `gorm:"column:country" json:"country"`
	FoundedYear *int      `gorm:"column:founded_year" json:"founded_year,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Community) TableName() string { return "communities" }

func (c Community) GetPrimaryKeyValue() any { return c.ID }

func (c *Community) SetID(id uint) { c.ID = id }

// Mission is an assignment of a sister to an apostolate
type Mission struct {
	ID        uint       `gorm:"primaryKey;column:id" json:"id"`
	SisterID  uint       `gorm:"column:sister_id" json:"sister_id"`
	Name      string     `gorm:"column:name" json:"name"`
	Country   string     `gorm:"column:country" json:"country"`
	StartDate time.Time  `gorm:"column:start_date" json:"start_date"`
	EndDate   *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`
}

func (Mission) TableName() string { return "missions" }

func (m Mission) GetPrimaryKeyValue() any { return m.ID }

// RelatedResources lists resources whose reads join missions
func (Mission) RelatedResources() []string { return []string{"sisters"} }

func (m *Mission) SetID(id uint) { m.ID = id }
