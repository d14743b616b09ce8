// Peili - Asset Inventory Synchronization Engine
// Enumerate. Reconcile. Mirror.
package main

func main() {
	Execute()
}
