package core

// CategoryAmount is an amount aggregated by category.
type CategoryAmount struct {
	CategoryID int64
	Amount     Money
}

// MonthOverview is a compact dashboard summary for one owner and month.
type MonthOverview struct {
	Year      int
	Month     int // 1-12
	Income    Money
	Expense   Money
	ByExpense []CategoryAmount
}
