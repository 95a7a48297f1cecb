package bad

//pystub:class
type Broken struct {
	Events chan int
}
