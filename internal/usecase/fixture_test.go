package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
	"github.com/yourusername/agro-assistant-bot/internal/infrastructure/storage"
)

var fixtureTime = time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

func fixtureGrid() [][]string {
	return [][]string{
		{"Каталог препаратов"},
		{"Вид препарата", "Вид объекта", "Наименование препарата", "Действующее вещество", "Культура", "Вредный объект", "Норма расхода"},
		{"Гербицид", "Однодольные сорняки, Двудольные сорняки", "Миура", "хизалофоп-П-этил, 125 г/л", "Свекла сахарная, Соя", "Злаковые сорняки", "0,4-0,8 л/га"},
		{"Фунгицид", "Болезни", "Тебу", "тебуконазол, 250 г/л", "Пшеница яровая и озимая", "Головня", "0,5 л/т"},
		{"", "", "", "", "Ячмень яровой", "Ржавчина", "0,5-1 л/га"},
		{"Инсектицид", "Вредители", "Борей", "имидаклоприд + лямбда-цигалотрин", "Пшеница озимая", "Клопы", "0,1-0,12 л/га + ПАВ Контур 0,1 л/га"},
		{"Гербицид", "Двудольные сорняки", "Корсар", "бентазон, 480 г/л", "Соя", "Двудольные", "по рекомендации"},
	}
}

func fixtureTable() entity.Table {
	return storage.BuildTable(fixtureGrid(), fixtureTime)
}

// generatedGrid n products spread over crops crops, three crops per row,
// five destroy categories; every seventh product is a seed treatment.
func generatedGrid(n, crops int) [][]string {
	grid := [][]string{
		{"Вид препарата", "Вид объекта", "Наименование препарата", "Действующее вещество", "Культура", "Вредный объект", "Норма расхода"},
	}
	for i := 0; i < n; i++ {
		rate := "0,5-1 л/га"
		if i%7 == 0 {
			rate = "1 л/т"
		}
		grid = append(grid, []string{
			"Гербицид",
			fmt.Sprintf("Сорняки %d", i%5),
			fmt.Sprintf("Препарат %04d", i),
			"глифосат, 360 г/л",
			fmt.Sprintf("Культура %03d, Культура %03d, Культура %03d", i%crops, (i*7+1)%crops, (i*13+2)%crops),
			"Однолетние сорняки",
			rate,
		})
	}
	return grid
}

type stubCatalogRepo struct {
	table      entity.Table
	contacts   entity.Table
	generation uint64
	forced     int
}

func newStubCatalogRepo(table entity.Table) *stubCatalogRepo {
	return &stubCatalogRepo{table: table, generation: 1}
}

func (s *stubCatalogRepo) Catalog(ctx context.Context, force bool) entity.Table {
	if force {
		s.forced++
		s.generation++
		s.table.LoadedAt = s.table.LoadedAt.Add(time.Minute)
	}
	return s.table
}

func (s *stubCatalogRepo) Contacts(ctx context.Context, force bool) entity.Table {
	return s.contacts
}

func (s *stubCatalogRepo) CatalogGeneration() uint64 {
	return s.generation
}
