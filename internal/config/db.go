package config

import (
	"log"
	"os"
	"strings"
	"sync"

	"cardiovoice-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	DB   *gorm.DB
	once sync.Once
)

func ConnectDB() {
	once.Do(func() {
		db, err := connectAndMigrate(os.Getenv("DATABASE_URL"))
		if err != nil {
			log.Fatal("Error connecting database:", err)
		}
		DB = db
		log.Println("DB connected, migrated and seeded")
	})
}

func connectAndMigrate(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file::") {
		dialector = sqlite.Open(dsn)
	} else {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Condition{},
		&models.Supplement{},
	); err != nil {
		return nil, err
	}

	seedKnowledgeBase(db)
	return db, nil
}

// seedKnowledgeBase loads the initial condition and supplement rows the
// retrieval service searches over. Idempotent: existing codes and names
// are left untouched.
func seedKnowledgeBase(db *gorm.DB) {
	conditions := []models.Condition{
		{Code: "АГ", Name: "Артериальная гипертензия", NameEn: "Hypertension"},
		{Code: "СД2", Name: "Сахарный диабет 2 типа", NameEn: "Type 2 diabetes"},
		{Code: "ИБС", Name: "Ишемическая болезнь сердца", NameEn: "Ischemic heart disease"},
	}

	ids := make(map[string]uint, len(conditions))
	for _, c := range conditions {
		var existing models.Condition
		err := db.Where("code = ?", c.Code).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&c).Error; err != nil {
				log.Printf("Error seeding condition %s: %v", c.Code, err)
				continue
			}
			existing = c
		} else if err != nil {
			log.Printf("Error looking up condition %s: %v", c.Code, err)
			continue
		}
		ids[existing.Code] = existing.ID
	}

	supplements := []models.Supplement{
		{ConditionID: ids["АГ"], Name: "Магний цитрат", Dosage: "300-400 мг/день",
			Mechanism: "Расслабляет гладкую мускулатуру сосудов, поддерживает вазодилатацию",
			Keywords:  "давление аг гипертензия сосуды магний вазодилатация стресс",
			Warnings:  "Осторожно при почечной недостаточности"},
		{ConditionID: ids["АГ"], Name: "Экстракт боярышника", Dosage: "500 мг/день",
			Mechanism: "Мягко снижает давление, улучшает тонус сосудов",
			Keywords:  "давление сосуды сердце ритм тонус",
			Warnings:  "Не сочетать с сердечными гликозидами без контроля врача"},
		{ConditionID: ids["СД2"], Name: "Берберин", Dosage: "500 мг 2 раза/день",
			Mechanism: "Повышает чувствительность к инсулину, снижает глюкозу натощак",
			Keywords:  "сахар глюкоза инсулин диабет сд2 берберин метаболизм",
			Warnings:  "Может усиливать действие сахароснижающих препаратов"},
		{ConditionID: ids["СД2"], Name: "Хром пиколинат", Dosage: "200 мкг/день",
			Mechanism: "Участвует в метаболизме глюкозы, снижает тягу к сладкому",
			Keywords:  "сахар глюкоза инсулин хром метаболизм энергия",
			Warnings:  "Превышение дозы не ускоряет эффект"},
		{ConditionID: ids["ИБС"], Name: "Омега-3 (EPA/DHA)", Dosage: "1000-2000 мг/день",
			Mechanism: "Снижает триглицериды и воспаление, поддерживает миокард",
			Keywords:  "сердце миокард ибс кардио омега воспаление сосуды",
			Warnings:  "Осторожно при приеме антикоагулянтов"},
		{ConditionID: ids["ИБС"], Name: "Коэнзим Q10", Dosage: "100-200 мг/день",
			Mechanism: "Поддерживает энергетику кардиомиоцитов, антиоксидант",
			Keywords:  "сердце миокард энергия митохондрии атф coq10 усталость антиоксидант",
			Warnings:  "Принимать с жирной пищей для усвоения"},
		{ConditionID: ids["ИБС"], Name: "Таурин", Dosage: "1000 мг/день",
			Mechanism: "Стабилизирует ритм, поддерживает сократимость миокарда",
			Keywords:  "сердце ритм миокард таурин кардио",
			Warnings:  "Не превышать 3 г/день"},
		{ConditionID: ids["ИБС"], Name: "NAC (N-ацетилцистеин)", Dosage: "600 мг/день",
			Mechanism: "Антиоксидантная защита эндотелия, полезен при курении",
			Keywords:  "курение антиоксидант легкие сосуды воспаление эндотелий nac",
			Warnings:  "Может разжижать мокроту"},
	}

	for _, s := range supplements {
		if s.ConditionID == 0 {
			continue
		}
		var count int64
		db.Model(&models.Supplement{}).Where("name = ?", s.Name).Count(&count)
		if count == 0 {
			if err := db.Create(&s).Error; err != nil {
				log.Printf("Error seeding supplement %s: %v", s.Name, err)
			}
		}
	}

	log.Println("Knowledge base seeding completed")
}
