package pagination

// PageDefault is the first page.
const PageDefault = 1

// LimitDefault is the default page size if not specified
const LimitDefault = 20

// LimitMax is the maximum page size accepted from HTTP clients
const LimitMax = 100
