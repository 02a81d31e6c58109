package inventory

import "sort"

// ByProduct devuelve los índices 0..n-1 ordenados por ID de producto. Toda transacción que
// mueve varias filas de product_stock debe recorrerlas en este orden: así dos pedidos
// concurrentes con los mismos productos toman los bloqueos en la misma secuencia.
func ByProduct(n int, productID func(i int) string) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return productID(idx[a]) < productID(idx[b])
	})
	return idx
}
