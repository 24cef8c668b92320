package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	err = db.AutoMigrate(
		&Raid{},
		&Encounter{},
		&EncounterEntity{},
		&RaidSession{},
		&SessionPart{},
		&EncounterCompletion{},
		&EntityDeath{},
		&Loot{},
	)
	if err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

func seedSessionWithPart(t *testing.T, db *gorm.DB) (*RaidSession, *SessionPart) {
	t.Helper()
	raidRepository := NewRaidRepository(db)
	sessionRepository := NewSessionRepository(db)
	raid, err := raidRepository.UpsertRaid(&Raid{Name: "Molten Core", Abbreviation: "MC", BossCount: 10})
	assert.Nil(t, err)
	session, err := sessionRepository.Create(&RaidSession{SessionKey: "2025-w49-mc", RaidId: raid.Id, Year: 2025, Week: 49})
	assert.Nil(t, err)
	part, err := sessionRepository.UpsertPart(&SessionPart{
		SessionId:  session.Id,
		PartNumber: 1,
		StartTime:  time.Date(2025, 12, 3, 20, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2025, 12, 3, 23, 0, 0, 0, time.UTC),
	})
	assert.Nil(t, err)
	assert.NotZero(t, part.Id)
	return session, part
}

func TestUpsertPartOverwritesMetadata(t *testing.T) {
	db := openTestDB(t)
	session, part := seedSessionWithPart(t, db)
	sessionRepository := NewSessionRepository(db)

	videoLink := "https://example.com/vod"
	updated, err := sessionRepository.UpsertPart(&SessionPart{
		SessionId:  session.Id,
		PartNumber: 1,
		StartTime:  time.Date(2025, 12, 3, 20, 5, 0, 0, time.UTC),
		EndTime:    time.Date(2025, 12, 3, 23, 30, 0, 0, time.UTC),
		VideoLink:  &videoLink,
	})
	assert.Nil(t, err)
	assert.Equal(t, part.Id, updated.Id)

	parts, err := sessionRepository.GetParts(session.Id)
	assert.Nil(t, err)
	assert.Len(t, parts, 1)
	assert.Equal(t, time.Date(2025, 12, 3, 20, 5, 0, 0, time.UTC), parts[0].StartTime.UTC())
	assert.Equal(t, "https://example.com/vod", *parts[0].VideoLink)
}

func TestLootUpsertAccumulatesQuantity(t *testing.T) {
	db := openTestDB(t)
	_, part := seedSessionWithPart(t, db)
	lootRepository := NewLootRepository(db)

	err := lootRepository.UpsertBatch([]*Loot{
		{PartId: part.Id, PlayerName: "Thrall", ItemId: 12345, ItemName: "Sulfuron Hammer", Rarity: RarityEpic, Quantity: 2},
	})
	assert.Nil(t, err)
	err = lootRepository.UpsertBatch([]*Loot{
		{PartId: part.Id, PlayerName: "Thrall", ItemId: 12345, ItemName: "Sulfuron Hammer", Rarity: RarityEpic, Quantity: 3},
	})
	assert.Nil(t, err)

	rows, err := lootRepository.GetForParts([]int{part.Id})
	assert.Nil(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 5, rows[0].Quantity)
}

func TestDeathUpsertKeepsMaxCount(t *testing.T) {
	db := openTestDB(t)
	_, part := seedSessionWithPart(t, db)
	deathRepository := NewDeathRepository(db)

	first := time.Date(2025, 12, 3, 21, 0, 0, 0, time.UTC)
	err := deathRepository.UpsertBatch([]*EntityDeath{
		{PartId: part.Id, EntityName: "Ragnaros", Count: 3, LastDeathAt: first},
	})
	assert.Nil(t, err)

	// A re-import from a truncated log must not shrink the count or move the
	// timestamp.
	earlier := time.Date(2025, 12, 3, 20, 30, 0, 0, time.UTC)
	err = deathRepository.UpsertBatch([]*EntityDeath{
		{PartId: part.Id, EntityName: "Ragnaros", Count: 1, LastDeathAt: earlier},
	})
	assert.Nil(t, err)

	rows, err := deathRepository.GetForParts([]int{part.Id})
	assert.Nil(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].Count)
	assert.Equal(t, first, rows[0].LastDeathAt.UTC())

	// A higher count moves both fields.
	later := time.Date(2025, 12, 3, 22, 0, 0, 0, time.UTC)
	err = deathRepository.UpsertBatch([]*EntityDeath{
		{PartId: part.Id, EntityName: "Ragnaros", Count: 4, LastDeathAt: later},
	})
	assert.Nil(t, err)
	rows, err = deathRepository.GetForParts([]int{part.Id})
	assert.Nil(t, err)
	assert.Equal(t, 4, rows[0].Count)
	assert.Equal(t, later, rows[0].LastDeathAt.UTC())
}

func TestCompletionUpsertCoalesces(t *testing.T) {
	db := openTestDB(t)
	_, part := seedSessionWithPart(t, db)
	raidRepository := NewRaidRepository(db)
	completionRepository := NewCompletionRepository(db)

	encounter, err := raidRepository.UpsertEncounter(1, "Ragnaros")
	assert.Nil(t, err)

	wipes := 2
	err = completionRepository.UpsertBatch([]*EncounterCompletion{
		{PartId: part.Id, EncounterId: encounter.Id, IsKill: false, Wipes: &wipes},
	})
	assert.Nil(t, err)

	// Incoming non-null completion time wins; the stored wipe count survives
	// the nil incoming value.
	killTime := time.Date(2025, 12, 3, 21, 0, 0, 0, time.UTC)
	err = completionRepository.UpsertBatch([]*EncounterCompletion{
		{PartId: part.Id, EncounterId: encounter.Id, IsKill: true, CompletionTime: &killTime},
	})
	assert.Nil(t, err)

	rows, err := completionRepository.GetForParts([]int{part.Id})
	assert.Nil(t, err)
	assert.Len(t, rows, 1)
	assert.True(t, rows[0].IsKill)
	assert.Equal(t, killTime, rows[0].CompletionTime.UTC())
	assert.Equal(t, 2, *rows[0].Wipes)
}

func TestEmptyBatchesAreNoOps(t *testing.T) {
	db := openTestDB(t)
	assert.Nil(t, NewLootRepository(db).UpsertBatch(nil))
	assert.Nil(t, NewDeathRepository(db).UpsertBatch(nil))
	assert.Nil(t, NewCompletionRepository(db).UpsertBatch(nil))
}

func TestDeleteSessionRemovesDependentsFirst(t *testing.T) {
	db := openTestDB(t)
	session, part := seedSessionWithPart(t, db)
	sessionRepository := NewSessionRepository(db)

	killTime := time.Date(2025, 12, 3, 21, 0, 0, 0, time.UTC)
	assert.Nil(t, NewLootRepository(db).UpsertBatch([]*Loot{
		{PartId: part.Id, PlayerName: "Thrall", ItemId: 12345, ItemName: "Sulfuron Hammer", Rarity: RarityEpic, Quantity: 1},
	}))
	assert.Nil(t, NewDeathRepository(db).UpsertBatch([]*EntityDeath{
		{PartId: part.Id, EntityName: "Ragnaros", Count: 1, LastDeathAt: killTime},
	}))
	assert.Nil(t, NewCompletionRepository(db).UpsertBatch([]*EncounterCompletion{
		{PartId: part.Id, EncounterId: 1, IsKill: true, CompletionTime: &killTime},
	}))

	assert.Nil(t, sessionRepository.DeleteSession(session.SessionKey))

	var count int64
	for _, model := range []interface{}{&RaidSession{}, &SessionPart{}, &Loot{}, &EntityDeath{}, &EncounterCompletion{}} {
		assert.Nil(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}
}

func TestDeleteMissingSessionIsNoOp(t *testing.T) {
	db := openTestDB(t)
	assert.Nil(t, NewSessionRepository(db).DeleteSession("never-imported"))
}

func TestMarkIrrelevantAppendsReasonToNotes(t *testing.T) {
	db := openTestDB(t)
	session, _ := seedSessionWithPart(t, db)
	sessionRepository := NewSessionRepository(db)

	assert.Nil(t, sessionRepository.SetNotes(session.SessionKey, "pug filled two spots"))
	assert.Nil(t, sessionRepository.MarkIrrelevant(session.SessionKey, "practice run"))

	stored, err := sessionRepository.GetByKey(session.SessionKey)
	assert.Nil(t, err)
	assert.True(t, stored.Irrelevant)
	assert.Equal(t, "pug filled two spots\npractice run", stored.Notes)
}
