package repository

// Repos agrupa los repositorios atados a una misma transacción (ver TxRunner en la capa de aplicación).
type Repos struct {
	Stock         StockRepository
	Movements     InventoryMovementRepository
	Products      ProductRepository
	Orders        OrderRepository
	Sales         SaleRepository
	Finance       FinanceRepository
	PaymentEvents PaymentEventRepository
}
