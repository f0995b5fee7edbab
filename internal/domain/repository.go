package domain

// OrderRepository описывает требования к хранилищу заказов.
// Идентификатор и createdAt назначает хранилище при создании.
type OrderRepository interface {
	// Create атомарно сохраняет заказ вместе с позициями и возвращает
	// созданную запись с назначенными id и createdAt.
	Create(order Order) (Order, error)
	// List возвращает заказы от новых к старым; пустой список — не ошибка.
	List(limit int) ([]Order, error)
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// Update перезаписывает переданные поля; ErrOrderNotFound при отсутствии строки.
	Update(id string, update OrderUpdate) (Order, error)
	// Delete удаляет заказ и возвращает удалённую запись;
	// ErrOrderNotFound при отсутствии строки.
	Delete(id string) (Order, error)
}
